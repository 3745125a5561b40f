package awstest

import (
	"context"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// SQS records every sent message.
type SQS struct {
	mu     sync.Mutex
	sent   []*sqs.SendMessageInput
	Err    error
	nextID int
}

func NewSQS() *SQS { return &SQS{} }

func (s *SQS) SendMessage(ctx context.Context, in *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	s.sent = append(s.sent, in)
	s.nextID++
	id := fmt.Sprintf("msg-%d", s.nextID)
	return &sqs.SendMessageOutput{MessageId: &id}, nil
}

// Bodies returns the message bodies sent so far.
func (s *SQS) Bodies() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.sent))
	for _, in := range s.sent {
		if in.MessageBody != nil {
			out = append(out, *in.MessageBody)
		}
	}
	return out
}

// Sent returns the raw inputs.
func (s *SQS) Sent() []*sqs.SendMessageInput {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*sqs.SendMessageInput(nil), s.sent...)
}

// Package awstest provides in-memory fakes of the AWS client interfaces.
package awstest

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// KeyAttribute is the hash key every fake table uses.
const KeyAttribute = "idempotency_key"

type item = map[string]types.AttributeValue

// Dynamo is a minimal DynamoDB for PutItem/GetItem/UpdateItem. It evaluates
// only the condition expressions the idempotency store issues.
type Dynamo struct {
	mu     sync.Mutex
	tables map[string]map[string]item
	errs   map[string]error
	once   map[string][]error

	PutCalls    int
	GetCalls    int
	UpdateCalls int
}

func NewDynamo() *Dynamo {
	return &Dynamo{
		tables: map[string]map[string]item{},
		errs:   map[string]error{},
		once:   map[string][]error{},
	}
}

// FailOn makes every call to op ("PutItem", "GetItem", "UpdateItem") return
// err. A nil err clears it.
func (d *Dynamo) FailOn(op string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err == nil {
		delete(d.errs, op)
		return
	}
	d.errs[op] = err
}

// FailNext queues err for the next call to op only. Queued errors are used
// before the one set by FailOn.
func (d *Dynamo) FailNext(op string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.once[op] = append(d.once[op], err)
}

func (d *Dynamo) failure(op string) error {
	if q := d.once[op]; len(q) > 0 {
		d.once[op] = q[1:]
		return q[0]
	}
	return d.errs[op]
}

// Seed stores it as-is in table.
func (d *Dynamo) Seed(table string, it map[string]types.AttributeValue) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.table(table)[keyOf(it)] = copyItem(it)
}

// Item returns a copy of the stored item, or nil.
func (d *Dynamo) Item(table, key string) map[string]types.AttributeValue {
	d.mu.Lock()
	defer d.mu.Unlock()
	it, ok := d.table(table)[key]
	if !ok {
		return nil
	}
	return copyItem(it)
}

func (d *Dynamo) PutItem(ctx context.Context, in *dyn.PutItemInput, optFns ...func(*dyn.Options)) (*dyn.PutItemOutput, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.PutCalls++
	if err := d.failure("PutItem"); err != nil {
		return nil, err
	}
	key := keyOf(in.Item)
	if key == "" {
		return nil, fmt.Errorf("put item: missing %s", KeyAttribute)
	}
	t := d.table(*in.TableName)
	ok, err := check(in.ConditionExpression, t[key], in.ExpressionAttributeNames, in.ExpressionAttributeValues)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &types.ConditionalCheckFailedException{Message: strPtr("The conditional request failed")}
	}
	t[key] = copyItem(in.Item)
	return &dyn.PutItemOutput{}, nil
}

func (d *Dynamo) GetItem(ctx context.Context, in *dyn.GetItemInput, optFns ...func(*dyn.Options)) (*dyn.GetItemOutput, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.GetCalls++
	if err := d.failure("GetItem"); err != nil {
		return nil, err
	}
	it, ok := d.table(*in.TableName)[keyOf(in.Key)]
	if !ok {
		return &dyn.GetItemOutput{}, nil
	}
	return &dyn.GetItemOutput{Item: copyItem(it)}, nil
}

func (d *Dynamo) UpdateItem(ctx context.Context, in *dyn.UpdateItemInput, optFns ...func(*dyn.Options)) (*dyn.UpdateItemOutput, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.UpdateCalls++
	if err := d.failure("UpdateItem"); err != nil {
		return nil, err
	}
	key := keyOf(in.Key)
	t := d.table(*in.TableName)
	current := t[key]
	ok, err := check(in.ConditionExpression, current, in.ExpressionAttributeNames, in.ExpressionAttributeValues)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &types.ConditionalCheckFailedException{Message: strPtr("The conditional request failed")}
	}

	next := copyItem(current)
	if next == nil {
		next = copyItem(in.Key)
	}
	if err := apply(next, deref(in.UpdateExpression), in.ExpressionAttributeNames, in.ExpressionAttributeValues); err != nil {
		return nil, err
	}
	t[key] = next
	return &dyn.UpdateItemOutput{Attributes: copyItem(next)}, nil
}

func (d *Dynamo) table(name string) map[string]item {
	t, ok := d.tables[name]
	if !ok {
		t = map[string]item{}
		d.tables[name] = t
	}
	return t
}

// check evaluates the few condition shapes the store uses.
func check(expr *string, it item, names map[string]string, values map[string]types.AttributeValue) (bool, error) {
	if expr == nil {
		return true, nil
	}
	switch e := *expr; e {
	case "attribute_not_exists(idempotency_key)":
		return it == nil, nil
	case "attribute_exists(idempotency_key)":
		return it != nil, nil
	case "attribute_not_exists(idempotency_key) OR expires_at < :now":
		if it == nil {
			return true, nil
		}
		return number(it["expires_at"]) < number(values[":now"]), nil
	default:
		// "<name> = :<value>"
		lhs, rhs, ok := strings.Cut(e, " = ")
		if !ok {
			return false, fmt.Errorf("unsupported condition %q", e)
		}
		if it == nil {
			return false, nil
		}
		return str(it[resolve(lhs, names)]) == str(values[rhs]), nil
	}
}

// apply runs "SET a = :x, b = :y REMOVE c" against it.
func apply(it item, expr string, names map[string]string, values map[string]types.AttributeValue) error {
	setPart, removePart, _ := strings.Cut(expr, " REMOVE ")
	setPart = strings.TrimPrefix(strings.TrimSpace(setPart), "SET ")
	if setPart != "" {
		for _, clause := range strings.Split(setPart, ",") {
			lhs, rhs, ok := strings.Cut(strings.TrimSpace(clause), " = ")
			if !ok {
				return fmt.Errorf("unsupported update clause %q", clause)
			}
			v, ok := values[rhs]
			if !ok {
				return fmt.Errorf("missing value %s", rhs)
			}
			it[resolve(lhs, names)] = v
		}
	}
	for _, name := range strings.Split(removePart, ",") {
		if name = strings.TrimSpace(name); name != "" {
			delete(it, resolve(name, names))
		}
	}
	return nil
}

func resolve(name string, names map[string]string) string {
	if n, ok := names[name]; ok {
		return n
	}
	return name
}

func keyOf(it item) string {
	return str(it[KeyAttribute])
}

func str(v types.AttributeValue) string {
	if s, ok := v.(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

func number(v types.AttributeValue) int64 {
	n, ok := v.(*types.AttributeValueMemberN)
	if !ok {
		return 0
	}
	i, _ := strconv.ParseInt(n.Value, 10, 64)
	return i
}

func copyItem(it item) item {
	if it == nil {
		return nil
	}
	out := make(item, len(it))
	for k, v := range it {
		out[k] = v
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func strPtr(s string) *string { return &s }

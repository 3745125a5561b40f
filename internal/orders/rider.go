package orders

import (
	"hash/fnv"
	"time"
)

type rider struct {
	name  string
	plate string
}

// roster is a stand-in until a real rider pool exists.
var roster = []rider{
	{"Robert K.", "UFE 123X"},
	{"Grace N.", "UEB 482K"},
	{"Moses O.", "UDZ 907L"},
	{"Aisha T.", "UFA 215P"},
}

// AssignRider picks a rider for orderID. The same order always gets the same
// rider so redelivered messages agree.
func AssignRider(orderID string, now time.Time) Assignment {
	h := fnv.New32a()
	_, _ = h.Write([]byte(orderID))
	r := roster[h.Sum32()%uint32(len(roster))]

	return Assignment{
		OrderID:    orderID,
		Status:     StatusDispatched,
		Rider:      r.name,
		Plate:      r.plate,
		AssignedAt: now.UTC(),
	}
}

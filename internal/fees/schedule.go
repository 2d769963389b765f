// Package fees holds the registration fee schedule. Amounts are whole XAF.
package fees

const (
	// BaseFee is charged for the first class in the schedule.
	BaseFee int64 = 50000
	// Increment is added for each class above the first.
	Increment int64 = 5000
)

// classOrder lists the classes accepting applications, lowest first.
var classOrder = []string{
	"Form 1",
	"Form 2",
	"Form 3",
	"Form 4",
	"Form 5",
	"Lower Sixth",
	"Upper Sixth",
}

// Schedule resolves registration fees by class name.
type Schedule struct {
	classes []string
	index   map[string]int
}

// NewSchedule builds a schedule over the given ordered classes.
func NewSchedule(classes []string) *Schedule {
	s := &Schedule{
		classes: append([]string(nil), classes...),
		index:   make(map[string]int, len(classes)),
	}
	for i, class := range s.classes {
		s.index[class] = i
	}
	return s
}

// Default returns the school's schedule.
func Default() *Schedule {
	return NewSchedule(classOrder)
}

// FeeFor returns the fee for an exact class name. Unknown classes report false.
func (s *Schedule) FeeFor(className string) (int64, bool) {
	i, ok := s.index[className]
	if !ok {
		return 0, false
	}
	return BaseFee + int64(i)*Increment, true
}

// All returns every class mapped to its fee.
func (s *Schedule) All() map[string]int64 {
	out := make(map[string]int64, len(s.classes))
	for i, class := range s.classes {
		out[class] = BaseFee + int64(i)*Increment
	}
	return out
}

// Classes returns the class names in schedule order.
func (s *Schedule) Classes() []string {
	return append([]string(nil), s.classes...)
}

// Entry pairs a class with its fee for ordered listings.
type Entry struct {
	Class string `json:"class"`
	Fee   int64  `json:"fee"`
}

// Entries returns the schedule in class order.
func (s *Schedule) Entries() []Entry {
	out := make([]Entry, len(s.classes))
	for i, class := range s.classes {
		out[i] = Entry{Class: class, Fee: BaseFee + int64(i)*Increment}
	}
	return out
}

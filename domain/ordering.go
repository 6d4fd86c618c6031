package domain

import "fmt"

// Ordering is the order in which Store.List returns posts.
type Ordering int

const (
	// OrderDefault lets each backend pick its own ordering.
	OrderDefault Ordering = iota
	OrderInsertion
	OrderNewestFirst
)

func ParseOrdering(s string) (Ordering, error) {
	switch s {
	case "":
		return OrderDefault, nil
	case "insertion":
		return OrderInsertion, nil
	case "newest":
		return OrderNewestFirst, nil
	}
	return OrderDefault, fmt.Errorf("unknown list order %q", s)
}

func (o Ordering) String() string {
	switch o {
	case OrderInsertion:
		return "insertion"
	case OrderNewestFirst:
		return "newest"
	}
	return "default"
}

package order

// transitions lists, per current status, the statuses it may move to.
// Requesting the current status is handled separately as a no-op.
//
// The table is stricter than a free-form status field: moves back along the
// lifecycle (SHIPPED -> CREATED) and out of a terminal status
// (CANCELLED -> SHIPPED, COMPLETED -> anything) are refused.
var transitions = map[OrderStatus][]OrderStatus{
	StatusCreated:   {StatusShipped, StatusCancelled},
	StatusShipped:   {StatusCompleted, StatusCancelled},
	StatusCompleted: nil,
	StatusCancelled: nil,
}

func (s OrderStatus) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// Editable reports whether items may be changed and the order deleted.
func (s OrderStatus) Editable() bool {
	return s == StatusCreated
}

func CanTransition(from, to OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

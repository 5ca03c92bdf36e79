package domain

// ItemType is a category of rentable item (e.g. "umbrella", "power bank").
// Identity is immutable; items reference their type by id.
type ItemType struct {
	ID   int64
	Name string
}

// Item is a single physical unit of an ItemType.
//
// Invariant: IsAvailable is false exactly when some non-terminal session holds
// the item. The flag is flipped only by the allocator paths — claiming inside
// the reservation transaction, releasing inside the cancellation transaction.
type Item struct {
	ID          int64
	TypeID      int64
	IsAvailable bool
}

// ItemFilter narrows an item listing. Nil fields mean "no constraint".
type ItemFilter struct {
	TypeID      *int64
	IsAvailable *bool
}

package dto

type CreateListInput struct {
	Name  string
	Tasks []TaskInput
}

type TaskInput struct {
	SKU              string
	ItemName         string
	OrderID          string
	Location         string
	RequiredQuantity int
}

// ScanResult reports the task the scan landed on and whether the whole list is
// now done (every task picked in full).
type ScanResult struct {
	TaskID         string
	SKU            string
	PickedQuantity int
	Required       int
	TaskCompleted  bool
	ListDone       bool
}

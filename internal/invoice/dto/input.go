package dto

type IssueInput struct {
	OrderID int64
	ActorID int64
	Notes   string
}

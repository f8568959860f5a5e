package api

// User is the public view of an account. PasswordHash never appears here.
type User struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	ImageURL  string `json:"image_url,omitempty"`
	CreatedAt int64  `json:"created_at"`
}

// Member is a group member with display metadata merged in.
type Member struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ImageURL string `json:"image_url,omitempty"`
	Role     string `json:"role"`
}

type Split struct {
	UserID string `json:"user_id"`
	Amount int64  `json:"amount"`
	Paid   bool   `json:"paid"`
}

type Expense struct {
	ID           string  `json:"id"`
	Description  string  `json:"description"`
	Amount       int64   `json:"amount"`
	Date         int64   `json:"date"`
	PaidByUserID string  `json:"paid_by_user_id"`
	GroupID      string  `json:"group_id,omitempty"`
	SplitType    string  `json:"split_type,omitempty"`
	CreatedBy    string  `json:"created_by"`
	Splits       []Split `json:"splits"`
}

type Settlement struct {
	ID               string `json:"id"`
	Amount           int64  `json:"amount"`
	Date             int64  `json:"date"`
	PaidByUserID     string `json:"paid_by_user_id"`
	ReceivedByUserID string `json:"received_by_user_id"`
	GroupID          string `json:"group_id,omitempty"`
	CreatedBy        string `json:"created_by"`
	Note             string `json:"note,omitempty"`
}

type Group struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Members     []Member `json:"members"`
	CreatedAt   int64    `json:"created_at"`
}

// Debt is one edge of the netted who-owes-whom graph.
type Debt struct {
	UserID string `json:"user_id"`
	Amount int64  `json:"amount"`
}

// MemberBalance is one member's position in a group ledger, with display
// metadata merged in by the service.
type MemberBalance struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ImageURL     string `json:"image_url,omitempty"`
	Role         string `json:"role"`
	TotalBalance int64  `json:"total_balance"`
	Owes         []Debt `json:"owes"`
	OwedBy       []Debt `json:"owed_by"`
}

// Auth

type RegisterRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type RegisterResponse struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

// Expenses

type CreateExpenseRequest struct {
	Description  string  `json:"description"`
	Amount       int64   `json:"amount"`
	Date         int64   `json:"date"`
	PaidByUserID string  `json:"paid_by_user_id"`
	GroupID      string  `json:"group_id,omitempty"`
	SplitType    string  `json:"split_type,omitempty"`
	Splits       []Split `json:"splits"`
}

type CreateExpenseResponse struct {
	Expense Expense `json:"expense"`
}

type GetExpenseRequest struct {
	ExpenseID string `json:"expense_id"`
}

type GetExpenseResponse struct {
	Expense Expense `json:"expense"`
}

type DeleteExpenseRequest struct {
	ExpenseID string `json:"expense_id"`
}

type DeleteExpenseResponse struct{}

// GetBalanceBetweenUsersRequest asks for the acting user's one-on-one
// position against another user.
type GetBalanceBetweenUsersRequest struct {
	UserID string `json:"user_id"`
}

type GetBalanceBetweenUsersResponse struct {
	// Balance is signed: positive means the other user owes the caller.
	Balance     int64        `json:"balance"`
	Expenses    []Expense    `json:"expenses"`
	Settlements []Settlement `json:"settlements"`
	OtherUser   User         `json:"other_user"`
}

// Settlements

type CreateSettlementRequest struct {
	Amount           int64  `json:"amount"`
	Date             int64  `json:"date"`
	ReceivedByUserID string `json:"received_by_user_id"`
	GroupID          string `json:"group_id,omitempty"`
	Note             string `json:"note,omitempty"`
}

type CreateSettlementResponse struct {
	Settlement Settlement `json:"settlement"`
}

type DeleteSettlementRequest struct {
	SettlementID string `json:"settlement_id"`
}

type DeleteSettlementResponse struct{}

// Groups

type CreateGroupRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	MemberIDs   []string `json:"member_ids"`
}

type CreateGroupResponse struct {
	Group Group `json:"group"`
}

type GetGroupRequest struct {
	GroupID string `json:"group_id"`
}

type GetGroupResponse struct {
	Group Group `json:"group"`
}

type ListGroupsRequest struct{}

type ListGroupsResponse struct {
	Groups []Group `json:"groups"`
}

type UpdateGroupRequest struct {
	GroupID     string   `json:"group_id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	MemberIDs   []string `json:"member_ids"`
}

type UpdateGroupResponse struct {
	Group Group `json:"group"`
}

type DeleteGroupRequest struct {
	GroupID string `json:"group_id"`
}

type DeleteGroupResponse struct{}

type GetGroupLedgerRequest struct {
	GroupID string `json:"group_id"`
}

// GetGroupLedgerResponse carries the full display payload for a group page:
// raw records, computed balances, and a lookup map for member metadata.
type GetGroupLedgerResponse struct {
	Group       Group             `json:"group"`
	Members     []Member          `json:"members"`
	Expenses    []Expense         `json:"expenses"`
	Settlements []Settlement      `json:"settlements"`
	Balances    []MemberBalance   `json:"balances"`
	UserLookup  map[string]Member `json:"user_lookup"`
}

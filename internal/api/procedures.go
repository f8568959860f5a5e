package api

// Procedure names follow the Connect convention of
// /<package>.<version>.<Service>/<Method>. Handlers are mounted on these
// exact paths; everything under /splitr.v1. is treated as an API route.
const (
	RoutePrefix = "/splitr.v1."

	AuthRegisterProcedure = "/splitr.v1.AuthService/Register"
	AuthLoginProcedure    = "/splitr.v1.AuthService/Login"

	ExpenseCreateProcedure  = "/splitr.v1.ExpenseService/CreateExpense"
	ExpenseGetProcedure     = "/splitr.v1.ExpenseService/GetExpense"
	ExpenseDeleteProcedure  = "/splitr.v1.ExpenseService/DeleteExpense"
	ExpenseBalanceProcedure = "/splitr.v1.ExpenseService/GetBalanceBetweenUsers"

	SettlementCreateProcedure = "/splitr.v1.SettlementService/CreateSettlement"
	SettlementDeleteProcedure = "/splitr.v1.SettlementService/DeleteSettlement"

	GroupCreateProcedure = "/splitr.v1.GroupService/CreateGroup"
	GroupGetProcedure    = "/splitr.v1.GroupService/GetGroup"
	GroupListProcedure   = "/splitr.v1.GroupService/ListGroups"
	GroupUpdateProcedure = "/splitr.v1.GroupService/UpdateGroup"
	GroupDeleteProcedure = "/splitr.v1.GroupService/DeleteGroup"
	GroupLedgerProcedure = "/splitr.v1.GroupService/GetGroupLedger"
)

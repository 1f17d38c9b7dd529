package flows

// Deps groups flow dependency sets. The root engine builds this once.
type Deps struct {
	Register RegisterDeps
	Login    LoginDeps
	Refresh  RefreshDeps
	Logout   LogoutDeps
	Validate ValidateDeps
}

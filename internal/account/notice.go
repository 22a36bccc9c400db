package account

const (
	LevelSuccess = "success"
	LevelError   = "error"
)

// Notice is the one-line status message shown after an operation.
type Notice struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

var (
	noticeRegistered     = Notice{Level: LevelSuccess, Message: "Registration successful! Please log in."}
	noticeEmailTaken     = Notice{Level: LevelError, Message: "This email is already registered."}
	noticePasswordLong   = Notice{Level: LevelError, Message: "Password is too long."}
	noticeLoggedIn       = Notice{Level: LevelSuccess, Message: "Login successful!"}
	noticeBadCredentials = Notice{Level: LevelError, Message: "Invalid email or password."}
	noticeLoginRequired  = Notice{Level: LevelError, Message: "Please log in to view your profile."}
	noticeLoggedOut      = Notice{Level: LevelSuccess, Message: "You have been logged out."}
)

// redirect targets handed to the presentation layer
const (
	RedirectHome     = "/"
	RedirectLogin    = "/login"
	RedirectRegister = "/register"
)

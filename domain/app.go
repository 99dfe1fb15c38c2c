package domain

// App is a piece of content as the server describes it.
type App struct {
	ID       int64  `json:"id"`
	GUID     string `json:"guid"`
	Name     string `json:"name"`
	Title    string `json:"title"`
	URL      string `json:"url"`
	AppMode  int    `json:"app_mode"`
	BundleID *int64 `json:"bundle_id,omitempty"`
	TaskID   string `json:"task_id,omitempty"`
}

// Mode resolves the app's ordinal mode, falling back to AppModeUnknown.
func (a *App) Mode() AppMode {
	mode, _ := AppModeFromOrdinal(a.AppMode)
	return mode
}

// AppSummary is the abbreviated view of an app returned by title searches.
type AppSummary struct {
	ID        int64  `json:"id" yaml:"id"`
	Name      string `json:"name" yaml:"name"`
	Title     string `json:"title" yaml:"title"`
	AppMode   string `json:"app_mode" yaml:"app_mode"`
	URL       string `json:"url" yaml:"url"`
	ConfigURL string `json:"config_url" yaml:"config_url"`
}

// AppConfig is the configuration view of an app.
type AppConfig struct {
	ConfigURL string `json:"config_url"`
}

// Bundle is an uploaded archive.
type Bundle struct {
	ID int64 `json:"id"`
}

// Task identifies a server-side job started by a deploy.
type Task struct {
	ID string `json:"id"`
}

// BuildTask is returned when a content rebuild is requested.
type BuildTask struct {
	TaskID string `json:"task_id"`
}

// Content is an item of the v1 content API.
type Content struct {
	GUID          string `json:"guid"`
	Name          string `json:"name"`
	Title         string `json:"title"`
	AppMode       string `json:"app_mode"`
	ContentURL    string `json:"content_url"`
	DashboardURL  string `json:"dashboard_url"`
	BundleID      string `json:"bundle_id"`
	OwnerGUID     string `json:"owner_guid"`
	AppRole       string `json:"app_role"`
	LockedMessage string `json:"locked_message,omitempty"`
}

// User is the account behind the API key in use.
type User struct {
	GUID     string `json:"guid"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// SearchPage is one page of the applications search API.
type SearchPage struct {
	Applications []App `json:"applications"`
	Total        int   `json:"total"`
	Count        int   `json:"count"`
	// Continuation is opaque; it is echoed back verbatim as the "cont" query parameter.
	Continuation any `json:"continuation"`
}

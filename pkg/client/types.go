package client

// SiteSpec mirrors the daemon's site definition for registration requests.
type SiteSpec struct {
	Name        string   `json:"name"`
	CWD         string   `json:"cwd"`
	Command     string   `json:"command"`
	Port        int      `json:"port,omitempty"`
	Log         string   `json:"log,omitempty"`
	Env         []string `json:"env,omitempty"`
	Autostart   bool     `json:"autostart,omitempty"`
	Autorestart bool     `json:"autorestart,omitempty"`
}

// SiteStatus is the daemon's view of one site.
type SiteStatus struct {
	Name    string `json:"name"`
	Running bool   `json:"running"`
	Mode    string `json:"mode"`
	PID     int    `json:"pid,omitempty"`
	Port    int    `json:"port,omitempty"`
	CWD     string `json:"cwd"`
	Command string `json:"command"`
	Log     string `json:"log"`
}

// LogsResponse is the payload of the logs endpoint.
type LogsResponse struct {
	Name  string   `json:"name"`
	Lines []string `json:"lines"`
}

// ErrorResponse is the daemon's error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}

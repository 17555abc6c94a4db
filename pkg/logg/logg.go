package logg

const (
	Layer     = "layer"
	Operation = "operation"
	URL       = "url"
	Selector  = "selector"
	Locator   = "locator"
	Category  = "category"
	SessionID = "session_id"
	Action    = "action"
	Path      = "path"
)

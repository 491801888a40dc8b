package constants

// Static route constants
const (
	UploadsRoute = "/uploads"
	APIRoute     = "/api"
)

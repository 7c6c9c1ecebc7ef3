package dtos

// HealthResponse reports liveness plus the storage mode in use.
type HealthResponse struct {
	Status  string `json:"status"`
	App     string `json:"app"`
	Storage string `json:"storage"`
}

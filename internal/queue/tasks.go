package queue

const (
	TypeModelPull = "model:pull"
)

type ModelPullPayload struct {
	Model       string `json:"model"`
	RequestedBy string `json:"requested_by"` // user ID, for the status record
}

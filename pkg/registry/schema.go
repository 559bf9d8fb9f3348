// pkg/registry/schema.go
package registry

type ActivityRegistry struct {
	Version     string     `json:"version"`
	LastUpdated string     `json:"lastUpdated"`
	Activities  []Activity `json:"activities"`
}

// Activity describes one Zeebe task type served by the worker manager.
type Activity struct {
	ID          string            `json:"id"`
	DisplayName string            `json:"displayName"`
	Description string            `json:"description"`
	Category    string            `json:"category"`
	TaskType    string            `json:"taskType"`
	Inputs      map[string]string `json:"inputs"`
	Outputs     map[string]string `json:"outputs"`
	// ErrorCodes are the BPMN error codes the task can throw.
	ErrorCodes []string `json:"errorCodes"`
	Timeout    string   `json:"timeout"`
}

package queue

// IngestMsg asks the worker to push an uploaded document through the
// retrieval service and graph the entities it mentions.
type IngestMsg struct {
	Message         string         `json:"message"`
	DocumentKey     string         `json:"document_key"`
	Filename        string         `json:"filename"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	ExtractEntities bool           `json:"extract_entities"`
}

// DeleteMsg asks the worker to remove a document everywhere: retrieval
// service, graph, embeddings, and object storage.
type DeleteMsg struct {
	Message     string `json:"message"`
	DocumentID  string `json:"document_id"`
	DocumentKey string `json:"document_key,omitempty"`
}

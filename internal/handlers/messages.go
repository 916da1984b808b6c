// internal/handlers/messages.go
package handlers

// InboundFrame is one client message. Clients differ on the discriminator
// key; both `action` and `type` are accepted, action winning when both are
// present.
type InboundFrame struct {
	Type   string                 `json:"type"`
	Action string                 `json:"action"`
	Data   map[string]interface{} `json:"data"`
}

// Name returns the effective action name.
func (f InboundFrame) Name() string {
	if f.Action != "" {
		return f.Action
	}
	return f.Type
}

func stringField(data map[string]interface{}, key string) string {
	if data == nil {
		return ""
	}
	if s, ok := data[key].(string); ok {
		return s
	}
	return ""
}

func boolFieldDefault(data map[string]interface{}, key string, def bool) bool {
	if data == nil {
		return def
	}
	if b, ok := data[key].(bool); ok {
		return b
	}
	return def
}

func mapField(data map[string]interface{}, key string) map[string]interface{} {
	if data == nil {
		return nil
	}
	if m, ok := data[key].(map[string]interface{}); ok {
		return m
	}
	return nil
}

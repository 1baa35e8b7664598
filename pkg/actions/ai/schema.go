package ai

func modelSchema(def string) map[string]any {
	return map[string]any{
		"type":        "string",
		"description": "Model name passed to the AI backend",
		"default":     def,
	}
}

func temperatureSchema() map[string]any {
	return map[string]any{
		"type":    "number",
		"minimum": 0,
		"maximum": 2,
		"default": 0.7,
	}
}

func maxTokensSchema() map[string]any {
	return map[string]any{
		"type":    "integer",
		"minimum": 1,
	}
}

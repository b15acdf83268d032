package catalog

var builtinVariants = []ModelVariant{
	{
		ID:             "phi2",
		DisplayName:    "Phi-2",
		Repo:           "microsoft/phi-2",
		ParamsBillions: 2.7,
		ContextLength:  2048,
		Tags:           []string{"language comprehension", "reasoning", "code generation"},
		UseCases:       []string{"Code completion", "Text generation", "Q&A systems", "Educational tools"},
	},
	{
		ID:             "phi3",
		DisplayName:    "Phi-3 Mini 4K Instruct",
		Repo:           "microsoft/Phi-3-mini-4k-instruct-onnx",
		ParamsBillions: 3.8,
		ContextLength:  4096,
		Tags:           []string{"coding", "math", "reasoning", "on-device"},
		UseCases:       []string{"Code generation", "Math problem solving", "Reasoning tasks", "Edge deployment", "Real-time applications"},
	},
	{
		ID:             "phi3.5",
		DisplayName:    "Phi-3.5 Mini Instruct",
		Repo:           "microsoft/Phi-3.5-mini-instruct-onnx",
		ParamsBillions: 3.8,
		ContextLength:  131072,
		Tags:           []string{"multilingual", "general performance", "enhanced reasoning"},
		UseCases:       []string{"Multilingual applications", "Long-context understanding", "Complex reasoning", "International deployment"},
	},
	{
		ID:             "phi4",
		DisplayName:    "Phi-4",
		Repo:           "microsoft/Phi-4-onnx",
		ParamsBillions: 14,
		ContextLength:  16384,
		Tags:           []string{"complex reasoning", "mathematics", "logic", "state-of-the-art"},
		UseCases:       []string{"Advanced reasoning", "Complex mathematics", "Logic puzzles", "Research assistance", "High-accuracy applications"},
	},
	{
		ID:             "phi4-mini",
		DisplayName:    "Phi-4 Mini",
		Repo:           "microsoft/Phi-4-mini-onnx",
		ParamsBillions: 3.8,
		ContextLength:  8192,
		Tags:           []string{"instruction following", "reasoning", "natural language"},
		UseCases:       []string{"Instruction following", "Task automation", "Natural conversation", "Efficient deployment"},
	},
}

// Default returns the built-in Phi catalog.
func Default() *Catalog {
	c, err := New(builtinVariants...)
	if err != nil {
		panic("catalog: invalid builtin table: " + err.Error())
	}
	return c
}

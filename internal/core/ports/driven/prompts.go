package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// If the prompt is not found, implementations should return the embedded
	// default or an error if there is none.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	// This is useful when prompts may have been edited on disk.
	Reload()
}

// Well-known prompt names.
const (
	// PromptAnswer is the answer template. It must contain the {context}
	// and {question} placeholders and no others.
	PromptAnswer = "answer"

	// PromptGreeting is the first assistant line shown by interactive shells.
	// It has no placeholders.
	PromptGreeting = "greeting"
)

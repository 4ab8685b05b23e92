// Package file keeps ragchat's settings and prompt templates under
// ~/.ragchat. ConfigStore reads config.toml (or a .yaml file) and
// PromptStore serves the answer and greeting templates, seeding the
// prompts directory from built-in copies on first use.
package file

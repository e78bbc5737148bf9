// Package file keeps user configuration on disk under ~/.searchlift:
// config.toml for settings and prompts/ for the LLM prompt templates.
// Watcher reloads both when they are edited.
package file

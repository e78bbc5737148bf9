package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/searchlift/internal/core/domain"
	"github.com/custodia-labs/searchlift/internal/core/ports/driven"
)

// newPrompts opens a prompt store in a fresh directory.
func newPrompts(t *testing.T) (*PromptStore, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "prompts")
	store, err := NewPromptStore(dir)
	require.NoError(t, err)
	return store, dir
}

func writePrompt(t *testing.T, dir, name, text string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".txt"), []byte(text), 0600))
}

func TestNewPromptStore_Dir(t *testing.T) {
	store, dir := newPrompts(t)
	assert.Equal(t, dir, store.Dir())

	_, err := os.Stat(dir)
	assert.True(t, os.IsNotExist(err), "nothing is written before the first Load")
}

func TestNewPromptStore_DefaultDir(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	store, err := NewPromptStore("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".searchlift", "prompts"), store.Dir())
}

func TestPromptStore_SeedsDirectory(t *testing.T) {
	store, dir := newPrompts(t)

	_, err := store.Load(driven.PromptMetaUser)
	require.NoError(t, err)

	system, err := os.ReadFile(filepath.Join(dir, "meta_system.txt"))
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultMetaSystemPrompt, string(system))

	readme, err := os.ReadFile(filepath.Join(dir, "README.md"))
	require.NoError(t, err)
	assert.Contains(t, string(readme), "{{.Queries}}")
}

func TestPromptStore_Defaults(t *testing.T) {
	store, _ := newPrompts(t)

	system, err := store.Load(driven.PromptMetaSystem)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultMetaSystemPrompt, system)

	user, err := store.Load(driven.PromptMetaUser)
	require.NoError(t, err)
	assert.Contains(t, user, "{{.URL}}")
	assert.Contains(t, user, "title, description, schema")
}

func TestPromptStore_UserEditsWin(t *testing.T) {
	store, dir := newPrompts(t)
	const custom = "You are an SEO expert for dental clinics."
	writePrompt(t, dir, driven.PromptMetaSystem, custom)

	got, err := store.Load(driven.PromptMetaSystem)
	require.NoError(t, err)
	assert.Equal(t, custom, got)

	onDisk, err := os.ReadFile(filepath.Join(dir, "meta_system.txt"))
	require.NoError(t, err)
	assert.Equal(t, custom, string(onDisk), "seeding must not overwrite edits")
}

func TestPromptStore_TrimsWhitespace(t *testing.T) {
	store, dir := newPrompts(t)
	writePrompt(t, dir, driven.PromptMetaSystem, "\n\n  prompt content  \n\n")

	got, err := store.Load(driven.PromptMetaSystem)
	require.NoError(t, err)
	assert.Equal(t, "prompt content", got)
}

func TestPromptStore_DeletedFileFallsBack(t *testing.T) {
	store, dir := newPrompts(t)
	_, err := store.Load(driven.PromptMetaUser)
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(dir, "meta_user.txt")))
	store.Reload()

	got, err := store.Load(driven.PromptMetaUser)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultMetaUserPrompt, got)
}

func TestPromptStore_UnknownName(t *testing.T) {
	store, _ := newPrompts(t)

	_, err := store.Load("nonexistent_prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nonexistent_prompt")
}

func TestPromptStore_SeedFailureUsesBuiltins(t *testing.T) {
	parent := t.TempDir()
	blocker := filepath.Join(parent, "prompts")
	require.NoError(t, os.WriteFile(blocker, []byte("not a directory"), 0600))

	store, err := NewPromptStore(blocker)
	require.NoError(t, err)

	got, err := store.Load(driven.PromptMetaSystem)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultMetaSystemPrompt, got)

	_, err = store.Load("nonexistent_prompt")
	assert.Error(t, err)
}

func TestPromptStore_CachesUntilReload(t *testing.T) {
	store, dir := newPrompts(t)

	first, err := store.Load(driven.PromptMetaSystem)
	require.NoError(t, err)

	writePrompt(t, dir, driven.PromptMetaSystem, "modified")

	cached, err := store.Load(driven.PromptMetaSystem)
	require.NoError(t, err)
	assert.Equal(t, first, cached)

	store.Reload()
	fresh, err := store.Load(driven.PromptMetaSystem)
	require.NoError(t, err)
	assert.Equal(t, "modified", fresh)
}

func TestPromptStore_ConcurrentLoads(t *testing.T) {
	store, _ := newPrompts(t)

	const n = 50
	got := make([]string, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			prompt, err := store.Load(driven.PromptMetaUser)
			assert.NoError(t, err)
			got[i] = prompt
		}()
	}
	wg.Wait()

	for _, p := range got {
		assert.Equal(t, got[0], p)
	}
}

func TestWriteIfMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.txt")

	require.NoError(t, writeIfMissing(path, []byte("first")))
	require.NoError(t, writeIfMissing(path, []byte("second")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "first", string(data))
}

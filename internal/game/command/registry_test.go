package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry()
	assert.NotNil(t, r)
	assert.Greater(t, len(r.Commands()), 0)
}

func TestResolve_CanonicalName(t *testing.T) {
	r := DefaultRegistry()

	cmd, ok := r.Resolve("roll")
	assert.True(t, ok)
	assert.Equal(t, "roll", cmd.Name)
	assert.Equal(t, HandlerRoll, cmd.Handler)
	assert.True(t, cmd.NeedsCampaign)
}

func TestResolve_Alias(t *testing.T) {
	r := DefaultRegistry()

	cmd, ok := r.Resolve("r")
	assert.True(t, ok)
	assert.Equal(t, "roll", cmd.Name)
}

func TestResolve_NotFound(t *testing.T) {
	r := DefaultRegistry()

	_, ok := r.Resolve("teleport")
	assert.False(t, ok)
}

func TestResolve_CaseInsensitive(t *testing.T) {
	r := DefaultRegistry()
	for _, in := range []string{"ROLL", "Roll", "R"} {
		cmd, ok := r.Resolve(in)
		require.True(t, ok, in)
		assert.Equal(t, "roll", cmd.Name)
	}
}

func TestResolve_Abbreviation(t *testing.T) {
	r := DefaultRegistry()

	cmd, ok := r.Resolve("sched")
	require.True(t, ok)
	assert.Equal(t, "schedule", cmd.Name)

	cmd, ok = r.Resolve("addsys")
	require.True(t, ok)
	assert.Equal(t, "addsystem", cmd.Name)

	_, ok = r.Resolve("sc")
	assert.False(t, ok, "shorter than MinPrefix")

	cmds := []Command{
		{Name: "sessions", Handler: "a"},
		{Name: "sessionize", Handler: "b"},
	}
	r2, err := NewRegistry(cmds)
	require.NoError(t, err)
	_, ok = r2.Resolve("sess")
	assert.False(t, ok, "ambiguous prefix")
}

func TestSuggest(t *testing.T) {
	r := DefaultRegistry()
	assert.Equal(t, []string{"sessions"}, r.Suggest("se"))
	assert.Equal(t, []string{"chars", "check"}, r.Suggest("chx"), "falls back to the first two letters")
	assert.Empty(t, r.Suggest("dance"))
	assert.Empty(t, r.Suggest(""))
}

func TestResolve_TableCommands(t *testing.T) {
	r := DefaultRegistry()

	tests := []struct {
		input   string
		handler string
	}{
		{"campaigns", HandlerCampaigns},
		{"camps", HandlerCampaigns},
		{"use", HandlerUse},
		{"join", HandlerUse},
		{"setrole", HandlerPromote},
		{"check", HandlerCheck},
		{"c", HandlerCheck},
		{"rolls", HandlerRecent},
		{"uwp", HandlerUWP},
		{"j", HandlerJump},
		{"map", HandlerSystems},
		{"em", HandlerEmote},
		{"who", HandlerWho},
		{"quit", HandlerQuit},
		{"exit", HandlerQuit},
		{"help", HandlerHelp},
		{"?", HandlerHelp},
	}

	for _, tt := range tests {
		cmd, ok := r.Resolve(tt.input)
		require.True(t, ok, "input %q not found", tt.input)
		assert.Equal(t, tt.handler, cmd.Handler, "input %q wrong handler", tt.input)
	}
}

func TestBuiltinCommands_CampaignIndependent(t *testing.T) {
	free := map[string]bool{}
	for _, cmd := range BuiltinCommands() {
		if !cmd.NeedsCampaign {
			free[cmd.Name] = true
		}
	}
	assert.Equal(t, map[string]bool{
		"campaigns": true, "newcampaign": true, "use": true,
		"uwp": true, "near": true, "quit": true, "help": true,
	}, free)
}

func TestBuiltinCommands_CategoriesKnown(t *testing.T) {
	known := map[string]bool{}
	for _, c := range Categories() {
		known[c] = true
	}
	for _, cmd := range BuiltinCommands() {
		assert.True(t, known[cmd.Category], "command %q has unknown category %q", cmd.Name, cmd.Category)
	}
}

func TestNewRegistry_DuplicateName(t *testing.T) {
	cmds := []Command{
		{Name: "test", Handler: "a"},
		{Name: "test", Handler: "b"},
	}
	_, err := NewRegistry(cmds)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate command name")
}

func TestNewRegistry_DuplicateAlias(t *testing.T) {
	cmds := []Command{
		{Name: "test1", Aliases: []string{"t"}, Handler: "a"},
		{Name: "test2", Aliases: []string{"t"}, Handler: "b"},
	}
	_, err := NewRegistry(cmds)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate alias")
}

func TestNewRegistry_AliasCollidesWithName(t *testing.T) {
	cmds := []Command{
		{Name: "roll", Handler: "a"},
		{Name: "reroll", Aliases: []string{"ROLL"}, Handler: "b"},
	}
	_, err := NewRegistry(cmds)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `already used by "roll"`)
}

func TestNewRegistry_RequiresNameAndHandler(t *testing.T) {
	_, err := NewRegistry([]Command{{Name: "roll"}})
	assert.Error(t, err)
	_, err = NewRegistry([]Command{{Handler: "roll"}})
	assert.Error(t, err)
}

func TestCommandsByCategory(t *testing.T) {
	r := DefaultRegistry()
	cats := r.CommandsByCategory()

	for _, c := range Categories() {
		assert.Contains(t, cats, c)
	}
	assert.Len(t, cats[CategoryDice], 3)
	dice := cats[CategoryDice]
	assert.Equal(t, []string{"check", "recent", "roll"}, []string{dice[0].Name, dice[1].Name, dice[2].Name})
}

func TestPropertyAllAliasesResolveToCanonical(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		r := DefaultRegistry()
		cmds := r.Commands()
		idx := rapid.IntRange(0, len(cmds)-1).Draw(t, "cmd_idx")
		cmd := cmds[idx]

		// Canonical name should resolve
		resolved, ok := r.Resolve(cmd.Name)
		if !ok {
			t.Fatalf("canonical name %q did not resolve", cmd.Name)
		}
		if resolved.Name != cmd.Name {
			t.Fatalf("canonical name %q resolved to %q", cmd.Name, resolved.Name)
		}

		// All aliases should resolve to same command
		for _, alias := range cmd.Aliases {
			aliasResolved, ok := r.Resolve(alias)
			if !ok {
				t.Fatalf("alias %q did not resolve", alias)
			}
			if aliasResolved.Name != cmd.Name {
				t.Fatalf("alias %q resolved to %q, expected %q", alias, aliasResolved.Name, cmd.Name)
			}
		}
	})
}

// Package command provides the command registry, parser, and built-in table console commands.
package command

// Categories for organizing commands.
const (
	CategoryCampaign      = "campaign"
	CategoryCharacter     = "character"
	CategoryDice          = "dice"
	CategoryWorld         = "world"
	CategoryCommunication = "communication"
	CategorySystem        = "system"
)

// Handler identifiers mapping commands to table console handlers.
const (
	HandlerCampaigns   = "campaigns"
	HandlerNewCampaign = "newcampaign"
	HandlerUse         = "use"
	HandlerMembers     = "members"
	HandlerInvite      = "invite"
	HandlerPromote     = "promote"
	HandlerChars       = "chars"
	HandlerCreate      = "create"
	HandlerPlay        = "play"
	HandlerSheet       = "sheet"
	HandlerTrain       = "train"
	HandlerRoll        = "roll"
	HandlerCheck       = "check"
	HandlerRecent      = "recent"
	HandlerUWP         = "uwp"
	HandlerJump        = "jump"
	HandlerNear        = "near"
	HandlerSystems     = "systems"
	HandlerAddSystem   = "addsystem"
	HandlerImport      = "import"
	HandlerSchedule    = "schedule"
	HandlerSessions    = "sessions"
	HandlerSay         = "say"
	HandlerEmote       = "emote"
	HandlerWho         = "who"
	HandlerQuit        = "quit"
	HandlerHelp        = "help"
)

// Command defines a console command.
type Command struct {
	// Name is the canonical command name.
	Name string
	// Aliases are alternate names for this command.
	Aliases []string
	// Usage is the argument synopsis shown in help, e.g. "<notation> [mod...]".
	Usage string
	// Help is the short help text displayed to users.
	Help string
	// Category groups the command for help output.
	Category string
	// Handler maps to the table console handler.
	Handler string
	// NeedsCampaign is true when the command acts on the selected campaign.
	NeedsCampaign bool
}

// BuiltinCommands returns all built-in table console commands.
func BuiltinCommands() []Command {
	return []Command{
		// Campaign commands
		{Name: "campaigns", Aliases: []string{"camps"}, Help: "List your campaigns and roles", Category: CategoryCampaign, Handler: HandlerCampaigns},
		{Name: "newcampaign", Aliases: []string{"nc"}, Usage: "<name>", Help: "Create a campaign; you become its gamemaster", Category: CategoryCampaign, Handler: HandlerNewCampaign},
		{Name: "use", Aliases: []string{"join"}, Usage: "<campaign|number>", Help: "Sit down at a campaign's table", Category: CategoryCampaign, Handler: HandlerUse},
		{Name: "members", Aliases: []string{"mem"}, Help: "List the campaign's members", Category: CategoryCampaign, Handler: HandlerMembers, NeedsCampaign: true},
		{Name: "invite", Usage: "<user> <role>", Help: "Add a user to the campaign (gamemaster only)", Category: CategoryCampaign, Handler: HandlerInvite, NeedsCampaign: true},
		{Name: "promote", Aliases: []string{"setrole"}, Usage: "<user> <role>", Help: "Change a member's role (gamemaster only)", Category: CategoryCampaign, Handler: HandlerPromote, NeedsCampaign: true},
		{Name: "schedule", Usage: "<YYYY-MM-DD HH:MM> <title>", Help: "Schedule a play session (gamemaster only)", Category: CategoryCampaign, Handler: HandlerSchedule, NeedsCampaign: true},
		{Name: "sessions", Help: "List scheduled play sessions", Category: CategoryCampaign, Handler: HandlerSessions, NeedsCampaign: true},

		// Character commands
		{Name: "chars", Aliases: []string{"characters"}, Help: "List the campaign's characters", Category: CategoryCharacter, Handler: HandlerChars, NeedsCampaign: true},
		{Name: "create", Aliases: []string{"new"}, Help: "Create a character step by step", Category: CategoryCharacter, Handler: HandlerCreate, NeedsCampaign: true},
		{Name: "play", Aliases: []string{"as"}, Usage: "<character>", Help: "Roll as one of your characters", Category: CategoryCharacter, Handler: HandlerPlay, NeedsCampaign: true},
		{Name: "sheet", Aliases: []string{"sh"}, Usage: "[character]", Help: "Show a character sheet", Category: CategoryCharacter, Handler: HandlerSheet, NeedsCampaign: true},
		{Name: "train", Usage: "<skill> <level>", Help: "Set a skill level on your current character (negative removes)", Category: CategoryCharacter, Handler: HandlerTrain, NeedsCampaign: true},

		// Dice commands
		{Name: "roll", Aliases: []string{"r"}, Usage: "<notation> [mod...]", Help: "Roll dice, e.g. roll 2d6+1 cover:-2", Category: CategoryDice, Handler: HandlerRoll, NeedsCampaign: true},
		{Name: "check", Aliases: []string{"c"}, Usage: "<skill|-> <char|-> [difficulty] [mod...]", Help: "Task check for your current character", Category: CategoryDice, Handler: HandlerCheck, NeedsCampaign: true},
		{Name: "recent", Aliases: []string{"rolls"}, Usage: "[n]", Help: "Show the table's recent rolls", Category: CategoryDice, Handler: HandlerRecent, NeedsCampaign: true},

		// World commands
		{Name: "uwp", Usage: "<code>", Help: "Decode a Universal World Profile", Category: CategoryWorld, Handler: HandlerUWP},
		{Name: "jump", Aliases: []string{"j"}, Usage: "<hex> <hex>", Help: "Jump distance between two hexes of the campaign map", Category: CategoryWorld, Handler: HandlerJump, NeedsCampaign: true},
		{Name: "near", Usage: "<sector> <hex> <jump>", Help: "Systems of a loaded sector within jump range", Category: CategoryWorld, Handler: HandlerNear},
		{Name: "systems", Aliases: []string{"map"}, Help: "List the campaign's star systems", Category: CategoryWorld, Handler: HandlerSystems, NeedsCampaign: true},
		{Name: "addsystem", Usage: "<sector> <hex> <uwp> <name>", Help: "Place a star system on the map (gamemaster only)", Category: CategoryWorld, Handler: HandlerAddSystem, NeedsCampaign: true},
		{Name: "import", Usage: "<sector>", Help: "Place every system of a loaded sector on the map (gamemaster only)", Category: CategoryWorld, Handler: HandlerImport, NeedsCampaign: true},

		// Communication commands
		{Name: "say", Usage: "<message>", Help: "Say something to the table", Category: CategoryCommunication, Handler: HandlerSay, NeedsCampaign: true},
		{Name: "emote", Aliases: []string{"em"}, Usage: "<action>", Help: "Perform an emote action", Category: CategoryCommunication, Handler: HandlerEmote, NeedsCampaign: true},

		// System commands
		{Name: "who", Help: "List users at the table", Category: CategorySystem, Handler: HandlerWho, NeedsCampaign: true},
		{Name: "quit", Aliases: []string{"exit"}, Help: "Disconnect from the table", Category: CategorySystem, Handler: HandlerQuit},
		{Name: "help", Aliases: []string{"?"}, Help: "Show available commands", Category: CategorySystem, Handler: HandlerHelp},
	}
}

// Categories returns the command categories in help display order.
func Categories() []string {
	return []string{
		CategoryCampaign,
		CategoryCharacter,
		CategoryDice,
		CategoryWorld,
		CategoryCommunication,
		CategorySystem,
	}
}

package campaign_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/traveller/internal/game/campaign"
	"github.com/cory-johannsen/traveller/internal/game/campaign/campaigntest"
	"github.com/cory-johannsen/traveller/internal/game/characteristic"
	"github.com/cory-johannsen/traveller/internal/game/dice"
	"github.com/cory-johannsen/traveller/internal/game/permission"
	"github.com/cory-johannsen/traveller/internal/game/world"
)

type fixture struct {
	svc      *campaign.Service
	store    *campaigntest.MemStore
	feed     *campaigntest.MemFeed
	gm       *campaign.User
	player   *campaign.User
	observer *campaign.User
	outsider *campaign.User
	camp     *campaign.Campaign
}

// newFixture builds a campaign with a gamemaster, a player and an observer.
// Dice faces are replayed from faces.
func newFixture(t *testing.T, faces ...int) *fixture {
	t.Helper()
	if len(faces) == 0 {
		faces = []int{3, 4}
	}
	logger := zaptest.NewLogger(t)
	store := campaigntest.NewMemStore()
	feed := campaigntest.NewMemFeed()
	perms := permission.NewEvaluator(store, logger, nil)
	roller := dice.NewLoggedRoller(dice.NewFixedSource(faces...), logger, nil)
	svc := campaign.NewService(store, feed, perms, roller, campaign.DefaultOptions(), logger)

	f := &fixture{
		svc:      svc,
		store:    store,
		feed:     feed,
		gm:       store.AddUser("gm"),
		player:   store.AddUser("jamison"),
		observer: store.AddUser("watcher"),
		outsider: store.AddUser("stranger"),
	}
	ctx := context.Background()
	c, err := svc.CreateCampaign(ctx, campaign.CreateCampaignRequest{UserID: f.gm.ID, Name: "Spinward Marches"})
	require.NoError(t, err)
	f.camp = c

	_, err = svc.AddMember(ctx, campaign.AddMemberRequest{UserID: f.gm.ID, CampaignID: c.ID, Username: "jamison", Role: permission.RolePlayer})
	require.NoError(t, err)
	_, err = svc.AddMember(ctx, campaign.AddMemberRequest{UserID: f.gm.ID, CampaignID: c.ID, Username: "watcher", Role: permission.RoleObserver})
	require.NoError(t, err)
	return f
}

func requireCode(t *testing.T, err error, code permission.Code) {
	t.Helper()
	var perr *permission.Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, code, perr.Code)
}

func allSevens() *characteristic.Characteristics {
	c := characteristic.FromValues([characteristic.Count]int{7, 7, 7, 7, 7, 7})
	return &c
}

func (f *fixture) character(t *testing.T, userID, name string, chars *characteristic.Characteristics, skills map[string]int) string {
	t.Helper()
	resp, err := f.svc.CreateCharacter(context.Background(), campaign.CreateCharacterRequest{
		UserID:          userID,
		CampaignID:      f.camp.ID,
		Name:            name,
		Characteristics: chars,
		Skills:          skills,
	})
	require.NoError(t, err)
	return resp.Character.ID
}

func TestCreateCampaign_CreatorIsGamemaster(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sums, err := f.svc.Campaigns(ctx, f.gm.ID)
	require.NoError(t, err)
	require.Len(t, sums, 1)
	assert.Equal(t, "Spinward Marches", sums[0].Name)
	assert.Equal(t, permission.RoleGamemaster, sums[0].Role)

	sums, err = f.svc.Campaigns(ctx, f.player.ID)
	require.NoError(t, err)
	require.Len(t, sums, 1)
	assert.Equal(t, permission.RolePlayer, sums[0].Role)

	sums, err = f.svc.Campaigns(ctx, f.outsider.ID)
	require.NoError(t, err)
	assert.Empty(t, sums)
}

func TestCreateCampaign_RejectsShortName(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.CreateCampaign(context.Background(), campaign.CreateCampaignRequest{UserID: f.gm.ID, Name: "x"})
	assert.ErrorIs(t, err, campaign.ErrInvalidRequest)
}

func TestCampaign_OutsiderIsNotMember(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Campaign(context.Background(), campaign.CampaignRequest{UserID: f.outsider.ID, CampaignID: f.camp.ID})
	requireCode(t, err, permission.CodeNotCampaignMember)
}

func TestAddMember_RequiresGamemaster(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddMember(ctx, campaign.AddMemberRequest{UserID: f.player.ID, CampaignID: f.camp.ID, Username: "stranger", Role: permission.RolePlayer})
	requireCode(t, err, permission.CodeInsufficientPermissions)

	_, err = f.svc.AddMember(ctx, campaign.AddMemberRequest{UserID: f.outsider.ID, CampaignID: f.camp.ID, Username: "stranger", Role: permission.RolePlayer})
	requireCode(t, err, permission.CodeNotCampaignMember)
}

func TestAddMember_UnknownUser(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.AddMember(context.Background(), campaign.AddMemberRequest{UserID: f.gm.ID, CampaignID: f.camp.ID, Username: "nobody", Role: permission.RolePlayer})
	assert.ErrorIs(t, err, campaign.ErrUserNotFound)
}

func TestSetMemberRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	m, err := f.svc.SetMemberRole(ctx, campaign.SetMemberRoleRequest{UserID: f.gm.ID, CampaignID: f.camp.ID, MemberUserID: f.observer.ID, Role: permission.RolePlayer})
	require.NoError(t, err)
	assert.Equal(t, permission.RolePlayer, m.Role)
	assert.True(t, m.Active)

	_, err = f.svc.SetMemberRole(ctx, campaign.SetMemberRoleRequest{UserID: f.gm.ID, CampaignID: f.camp.ID, MemberUserID: f.gm.ID, Role: permission.RolePlayer})
	assert.ErrorIs(t, err, campaign.ErrInvalidRequest)

	_, err = f.svc.SetMemberRole(ctx, campaign.SetMemberRoleRequest{UserID: f.gm.ID, CampaignID: f.camp.ID, MemberUserID: f.outsider.ID, Role: permission.RolePlayer})
	assert.ErrorIs(t, err, campaign.ErrMemberNotFound)
}

func TestMembers_SortedByUsername(t *testing.T) {
	f := newFixture(t)
	ms, err := f.svc.Members(context.Background(), campaign.CampaignRequest{UserID: f.observer.ID, CampaignID: f.camp.ID})
	require.NoError(t, err)
	require.Len(t, ms, 3)
	assert.Equal(t, "gm", ms[0].Username)
	assert.Equal(t, "jamison", ms[1].Username)
	assert.Equal(t, "watcher", ms[2].Username)
}

func TestCreateCharacter_RollsCharacteristics(t *testing.T) {
	f := newFixture(t, 3, 4)
	resp, err := f.svc.CreateCharacter(context.Background(), campaign.CreateCharacterRequest{
		UserID:     f.player.ID,
		CampaignID: f.camp.ID,
		Name:       "Jamison",
		Homeworld:  "Regina",
		Skills:     map[string]int{"Pilot": 1},
	})
	require.NoError(t, err)
	require.Len(t, resp.Rolls, 6)
	for _, r := range resp.Rolls {
		assert.Equal(t, 7, r.FinalResult)
	}
	assert.Equal(t, "777777", resp.Character.UPP())
	assert.Equal(t, f.player.ID, resp.Character.PlayerID)
	assert.Equal(t, 1, resp.Character.SkillLevel("pilot"))
	assert.NotEmpty(t, resp.Character.ID)
}

func TestCreateCharacter_AssignedCharacteristicsAreValidated(t *testing.T) {
	f := newFixture(t)
	bad := characteristic.FromValues([characteristic.Count]int{7, 7, 16, 7, 0, 7})
	_, err := f.svc.CreateCharacter(context.Background(), campaign.CreateCharacterRequest{
		UserID:          f.player.ID,
		CampaignID:      f.camp.ID,
		Name:            "Broken",
		Characteristics: &bad,
	})
	require.ErrorIs(t, err, campaign.ErrInvalidRequest)
	assert.Contains(t, err.Error(), "endurance must be between 1 and 15")
	assert.Contains(t, err.Error(), "education must be between 1 and 15")
}

func TestCreateCharacter_ObserverDenied(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.CreateCharacter(context.Background(), campaign.CreateCharacterRequest{
		UserID:          f.observer.ID,
		CampaignID:      f.camp.ID,
		Name:            "Lurker",
		Characteristics: allSevens(),
	})
	requireCode(t, err, permission.CodeInsufficientPermissions)
}

func TestUpdateCharacter_OwnerAndGamemaster(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.character(t, f.player.ID, "Jamison", allSevens(), map[string]int{"pilot": 1, "admin": 0})

	notes := "owes money on Regina"
	c, err := f.svc.UpdateCharacter(ctx, campaign.UpdateCharacterRequest{
		UserID:      f.player.ID,
		CharacterID: id,
		Notes:       &notes,
		Skills:      map[string]int{"Pilot": 2, "admin": -1, "vacc suit": 0},
	})
	require.NoError(t, err)
	assert.Equal(t, notes, c.Notes)
	assert.Equal(t, 2, c.SkillLevel("pilot"))
	assert.Equal(t, []string{"pilot", "vacc suit"}, c.SkillNames())

	credits := 5000
	c, err = f.svc.UpdateCharacter(ctx, campaign.UpdateCharacterRequest{UserID: f.gm.ID, CharacterID: id, Credits: &credits})
	require.NoError(t, err)
	assert.Equal(t, 5000, c.Credits)

	_, err = f.svc.UpdateCharacter(ctx, campaign.UpdateCharacterRequest{UserID: f.observer.ID, CharacterID: id, Credits: &credits})
	requireCode(t, err, permission.CodeInsufficientPermissions)
}

func TestUpdateCharacter_RejectsInvalidResult(t *testing.T) {
	f := newFixture(t)
	id := f.character(t, f.player.ID, "Jamison", allSevens(), nil)
	age := -1
	_, err := f.svc.UpdateCharacter(context.Background(), campaign.UpdateCharacterRequest{UserID: f.player.ID, CharacterID: id, Age: &age})
	assert.ErrorIs(t, err, campaign.ErrInvalidRequest)
}

func TestUpdateCharacter_Missing(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.UpdateCharacter(context.Background(), campaign.UpdateCharacterRequest{UserID: f.player.ID, CharacterID: "nope"})
	requireCode(t, err, permission.CodeCharacterNotFound)
}

func TestCharacters_VisibleToObserver(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.character(t, f.player.ID, "Jamison", allSevens(), nil)

	cs, err := f.svc.Characters(ctx, campaign.CampaignRequest{UserID: f.observer.ID, CampaignID: f.camp.ID})
	require.NoError(t, err)
	require.Len(t, cs, 1)

	c, err := f.svc.Character(ctx, campaign.CharacterRequest{UserID: f.observer.ID, CharacterID: id})
	require.NoError(t, err)
	assert.Equal(t, "Jamison", c.Name)

	_, err = f.svc.Character(ctx, campaign.CharacterRequest{UserID: f.outsider.ID, CharacterID: id})
	requireCode(t, err, permission.CodeNotCampaignMember)
}

func TestTaskCheck_UsesSkillAndCharacteristic(t *testing.T) {
	f := newFixture(t, 4, 4)
	ctx := context.Background()
	chars := characteristic.FromValues([characteristic.Count]int{7, 9, 7, 7, 7, 7})
	id := f.character(t, f.player.ID, "Jamison", &chars, map[string]int{"pilot": 2})

	rec, err := f.svc.TaskCheck(ctx, campaign.TaskCheckRequest{
		UserID:         f.player.ID,
		Username:       "jamison",
		CampaignID:     f.camp.ID,
		CharacterID:    id,
		Skill:          "Pilot",
		Characteristic: "dex",
	})
	require.NoError(t, err)
	require.True(t, rec.IsTaskCheck())
	assert.Equal(t, 8, rec.Result.Total)
	assert.Equal(t, 11, rec.Result.FinalResult)
	assert.Equal(t, 8, *rec.Difficulty)
	assert.True(t, *rec.Success)
	assert.Equal(t, 3, *rec.Effect)
	assert.Equal(t, "Pilot/dex", rec.Purpose)

	recent, err := f.svc.RecentRolls(ctx, campaign.RecentRollsRequest{UserID: f.observer.ID, CampaignID: f.camp.ID})
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "Jamison", recent[0].Character)
	assert.Equal(t, 3, recent[0].Effect)
	assert.Len(t, f.store.Rolls(), 1)
}

func TestTaskCheck_UntrainedSkill(t *testing.T) {
	f := newFixture(t, 4, 4)
	id := f.character(t, f.player.ID, "Jamison", allSevens(), nil)

	rec, err := f.svc.TaskCheck(context.Background(), campaign.TaskCheckRequest{
		UserID:      f.player.ID,
		CampaignID:  f.camp.ID,
		CharacterID: id,
		Skill:       "gunnery",
		Difficulty:  6,
	})
	require.NoError(t, err)
	assert.Equal(t, 5, rec.Result.FinalResult)
	assert.False(t, *rec.Success)
	assert.Equal(t, -1, *rec.Effect)
}

func TestTaskCheck_OtherPlayersCharacterDenied(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	other := f.store.AddUser("kiefer")
	_, err := f.svc.AddMember(ctx, campaign.AddMemberRequest{UserID: f.gm.ID, CampaignID: f.camp.ID, Username: "kiefer", Role: permission.RolePlayer})
	require.NoError(t, err)
	id := f.character(t, f.player.ID, "Jamison", allSevens(), nil)

	_, err = f.svc.TaskCheck(ctx, campaign.TaskCheckRequest{UserID: other.ID, CampaignID: f.camp.ID, CharacterID: id})
	requireCode(t, err, permission.CodeInsufficientPermissions)

	_, err = f.svc.TaskCheck(ctx, campaign.TaskCheckRequest{UserID: f.gm.ID, CampaignID: f.camp.ID, CharacterID: id})
	assert.NoError(t, err)
}

func TestTaskCheck_UnknownCharacteristic(t *testing.T) {
	f := newFixture(t)
	id := f.character(t, f.player.ID, "Jamison", allSevens(), nil)
	_, err := f.svc.TaskCheck(context.Background(), campaign.TaskCheckRequest{
		UserID: f.player.ID, CampaignID: f.camp.ID, CharacterID: id, Characteristic: "luck",
	})
	assert.ErrorIs(t, err, campaign.ErrInvalidRequest)
}

func TestRollDice(t *testing.T) {
	f := newFixture(t, 6, 2)
	rec, err := f.svc.RollDice(context.Background(), campaign.RollDiceRequest{
		UserID:     f.player.ID,
		Username:   "jamison",
		CampaignID: f.camp.ID,
		Notation:   "2d6+1",
		Modifiers:  []dice.Modifier{{Name: "cover", Value: -2}},
		Purpose:    "initiative",
	})
	require.NoError(t, err)
	assert.Equal(t, []int{6, 2}, rec.Result.Individual)
	assert.Equal(t, 7, rec.Result.FinalResult)
	assert.False(t, rec.IsTaskCheck())
}

func TestRollDice_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.RollDice(ctx, campaign.RollDiceRequest{UserID: f.player.ID, CampaignID: f.camp.ID, Notation: "d6"})
	assert.ErrorIs(t, err, campaign.ErrInvalidRequest)
	assert.ErrorIs(t, err, dice.ErrInvalidNotation)

	_, err = f.svc.RollDice(ctx, campaign.RollDiceRequest{UserID: f.player.ID, CampaignID: f.camp.ID, Notation: "1000d6"})
	assert.ErrorIs(t, err, campaign.ErrInvalidRequest)

	_, err = f.svc.RollDice(ctx, campaign.RollDiceRequest{UserID: f.observer.ID, CampaignID: f.camp.ID, Notation: "2d6"})
	requireCode(t, err, permission.CodeInsufficientPermissions)
}

func TestRollDice_FeedFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	f.feed.Err = errors.New("redis down")
	_, err := f.svc.RollDice(context.Background(), campaign.RollDiceRequest{UserID: f.player.ID, CampaignID: f.camp.ID, Notation: "1d6"})
	require.NoError(t, err)
	assert.Len(t, f.store.Rolls(), 1)
}

func TestRecentRolls_NewestFirstAndLimited(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, purpose := range []string{"a", "b", "c"} {
		_, err := f.svc.RollDice(ctx, campaign.RollDiceRequest{UserID: f.player.ID, CampaignID: f.camp.ID, Notation: "1d6", Purpose: purpose})
		require.NoError(t, err)
	}
	recent, err := f.svc.RecentRolls(ctx, campaign.RecentRollsRequest{UserID: f.gm.ID, CampaignID: f.camp.ID, Limit: 2})
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "c", recent[0].Purpose)
	assert.Equal(t, "b", recent[1].Purpose)
}

func TestAddStarSystem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sys := world.StarSystem{Name: "Regina", Hex: "1910", UWP: "a788899-c", Sector: "Spinward Marches"}

	got, err := f.svc.AddStarSystem(ctx, campaign.AddStarSystemRequest{UserID: f.gm.ID, CampaignID: f.camp.ID, System: sys})
	require.NoError(t, err)
	assert.Equal(t, "A788899-C", got.UWP)
	assert.Equal(t, f.camp.ID, got.CampaignID)

	_, err = f.svc.AddStarSystem(ctx, campaign.AddStarSystemRequest{UserID: f.gm.ID, CampaignID: f.camp.ID, System: sys})
	assert.ErrorIs(t, err, campaign.ErrSystemExists)

	bad := world.StarSystem{Name: "Nowhere", Hex: "1911", UWP: "Q788899-C"}
	_, err = f.svc.AddStarSystem(ctx, campaign.AddStarSystemRequest{UserID: f.gm.ID, CampaignID: f.camp.ID, System: bad})
	assert.ErrorIs(t, err, campaign.ErrInvalidRequest)

	_, err = f.svc.AddStarSystem(ctx, campaign.AddStarSystemRequest{UserID: f.player.ID, CampaignID: f.camp.ID, System: sys})
	requireCode(t, err, permission.CodeInsufficientPermissions)
}

func TestImportSector_SkipsOccupiedHexes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sector, err := world.LoadSectorFromFile("../../../content/sectors/regina.yaml")
	require.NoError(t, err)

	res, err := f.svc.ImportSector(ctx, campaign.ImportSectorRequest{UserID: f.gm.ID, CampaignID: f.camp.ID, Sector: sector})
	require.NoError(t, err)
	assert.Equal(t, len(sector.Systems), res.Added)
	assert.Zero(t, res.Skipped)

	res, err = f.svc.ImportSector(ctx, campaign.ImportSectorRequest{UserID: f.gm.ID, CampaignID: f.camp.ID, Sector: sector})
	require.NoError(t, err)
	assert.Zero(t, res.Added)
	assert.Equal(t, len(sector.Systems), res.Skipped)

	systems, err := f.svc.StarSystems(ctx, campaign.CampaignRequest{UserID: f.observer.ID, CampaignID: f.camp.ID})
	require.NoError(t, err)
	assert.Len(t, systems, len(sector.Systems))
}

func TestJumpDistance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, sys := range []world.StarSystem{
		{Name: "Regina", Hex: "1910", UWP: "A788899-C"},
		{Name: "Pysadi", Hex: "2716", UWP: "E120110-9"},
	} {
		_, err := f.svc.AddStarSystem(ctx, campaign.AddStarSystemRequest{UserID: f.gm.ID, CampaignID: f.camp.ID, System: sys})
		require.NoError(t, err)
	}

	resp, err := f.svc.JumpDistance(ctx, campaign.JumpRequest{UserID: f.observer.ID, CampaignID: f.camp.ID, From: "1910", To: "2716"})
	require.NoError(t, err)
	assert.Equal(t, 11, resp.Distance)
	require.NotNil(t, resp.From)
	require.NotNil(t, resp.To)
	assert.Equal(t, "Regina", resp.From.Name)
	assert.Equal(t, "Pysadi", resp.To.Name)

	resp, err = f.svc.JumpDistance(ctx, campaign.JumpRequest{UserID: f.observer.ID, CampaignID: f.camp.ID, From: "0101", To: "0303"})
	require.NoError(t, err)
	assert.Equal(t, 3, resp.Distance)
	assert.Nil(t, resp.From)

	_, err = f.svc.JumpDistance(ctx, campaign.JumpRequest{UserID: f.observer.ID, CampaignID: f.camp.ID, From: "19a0", To: "2716"})
	assert.ErrorIs(t, err, campaign.ErrInvalidRequest)
}

func TestScheduleSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	at := time.Date(2026, 11, 6, 19, 0, 0, 0, time.UTC)

	gs, err := f.svc.ScheduleSession(ctx, campaign.ScheduleSessionRequest{UserID: f.gm.ID, CampaignID: f.camp.ID, Title: "Session 1", ScheduledAt: at})
	require.NoError(t, err)
	assert.Equal(t, at, gs.ScheduledAt)

	_, err = f.svc.ScheduleSession(ctx, campaign.ScheduleSessionRequest{UserID: f.player.ID, CampaignID: f.camp.ID, Title: "Coup", ScheduledAt: at})
	requireCode(t, err, permission.CodeInsufficientPermissions)

	_, err = f.svc.ScheduleSession(ctx, campaign.ScheduleSessionRequest{UserID: f.gm.ID, CampaignID: f.camp.ID, Title: "Later"})
	assert.ErrorIs(t, err, campaign.ErrInvalidRequest)

	list, err := f.svc.Sessions(ctx, campaign.CampaignRequest{UserID: f.observer.ID, CampaignID: f.camp.ID})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

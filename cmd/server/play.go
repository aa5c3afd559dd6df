package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mathquest/battle-api/internal/entities"
	"github.com/mathquest/battle-api/internal/errors"
	"github.com/mathquest/battle-api/internal/orchestrators/battle"
	"github.com/mathquest/battle-api/internal/pkg/clock"
	"github.com/mathquest/battle-api/internal/repositories/characters"
)

var (
	playOwner string
	playName  string
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play an encounter from the terminal",
	Long: `Play lists the seeded encounters, starts the chosen one, and runs
the battle loop on stdin: answer by number, "s" to skip, "e" to escape.`,
	RunE: runPlay,
}

func init() {
	playCmd.Flags().StringVar(&playOwner, "owner", "local", "owner ID for the character")
	playCmd.Flags().StringVar(&playName, "name", "Adventurer", "character name when creating a new character")
}

func runPlay(cmd *cobra.Command, args []string) error {
	r, err := buildRepos(redisAddr)
	if err != nil {
		return err
	}
	svc, err := buildService(r)
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	if err := ensureCharacter(ctx, r.characters); err != nil {
		return err
	}

	encOut, err := svc.ListEncounters(ctx, &battle.ListEncountersInput{})
	if err != nil {
		return err
	}
	if len(encOut.Encounters) == 0 {
		return errors.FailedPrecondition("no encounters seeded; run the seed command first")
	}

	in := bufio.NewScanner(os.Stdin)

	fmt.Println("Encounters:")
	for i, enc := range encOut.Encounters {
		fmt.Printf("  %d) %s\n", i+1, enc.Title)
	}
	fmt.Print("Choose an encounter: ")
	if !in.Scan() {
		return nil
	}
	pick, err := strconv.Atoi(strings.TrimSpace(in.Text()))
	if err != nil || pick < 1 || pick > len(encOut.Encounters) {
		return errors.InvalidArgument("not a valid encounter number")
	}
	enc := encOut.Encounters[pick-1]

	startOut, err := svc.StartEncounter(ctx, &battle.StartEncounterInput{
		OwnerID:     playOwner,
		EncounterID: enc.ID,
	})
	if err != nil {
		return err
	}
	state := startOut.State

	fmt.Printf("\n%s\n", state.Title)
	fmt.Printf("A %s appears! (%d HP)\n", state.FoeName, state.FoeMaxHP)
	fmt.Print("Press enter to fight. ")
	in.Scan()

	beginOut, err := svc.BeginBattle(ctx, &battle.BeginBattleInput{OwnerID: playOwner})
	if err != nil {
		return err
	}
	state = beginOut.State

	for !state.Phase.Terminal() {
		state, err = playTurn(ctx, svc, in, state)
		if err != nil {
			return err
		}
	}

	printOutcome(state)
	return nil
}

// playTurn shows the current question, reads one command, and applies
// it. The wall timer keeps running while we wait on stdin; a submit
// that loses the race simply lands on the paused state.
func playTurn(ctx context.Context, svc battle.Service, in *bufio.Scanner, state *battle.Snapshot) (*battle.Snapshot, error) {
	if state.Phase == battle.PhasePaused {
		fmt.Printf("\n%s  (you: %d/%d HP)\n", state.Message, state.PlayerHP, state.PlayerMaxHP)
		fmt.Print("Press enter to continue. ")
		in.Scan()

		out, err := svc.AcknowledgeTurn(ctx, &battle.AcknowledgeTurnInput{OwnerID: playOwner})
		if err != nil {
			if errors.IsFailedPrecondition(err) {
				return refresh(ctx, svc)
			}
			return nil, err
		}
		return out.State, nil
	}

	q := state.Question
	fmt.Printf("\n[%d/%d] %s  (%.0fs, foe %d/%d, you %d/%d)\n",
		state.TurnIndex+1, state.TurnCount, q.Prompt(),
		state.TimerSeconds, state.FoeHP, state.FoeMaxHP, state.PlayerHP, state.PlayerMaxHP)
	for i, choice := range q.Choices {
		fmt.Printf("  %d) %s\n", i+1, choice)
	}
	fmt.Print("Answer (number), s to skip, e to escape: ")
	if !in.Scan() {
		_, err := svc.Abandon(ctx, &battle.AbandonInput{OwnerID: playOwner})
		return nil, err
	}

	switch input := strings.TrimSpace(in.Text()); input {
	case "s":
		out, err := svc.SkipQuestion(ctx, &battle.SkipQuestionInput{OwnerID: playOwner})
		if err != nil {
			if errors.IsFailedPrecondition(err) {
				return refresh(ctx, svc)
			}
			return nil, err
		}
		return out.State, nil
	case "e":
		out, err := svc.Escape(ctx, &battle.EscapeInput{OwnerID: playOwner})
		if err != nil {
			return nil, err
		}
		return out.State, nil
	default:
		choice, err := strconv.Atoi(input)
		if err != nil || choice < 1 || choice > len(q.Choices) {
			fmt.Println("Not a valid answer.")
			return refresh(ctx, svc)
		}
		out, err := svc.SubmitAnswer(ctx, &battle.SubmitAnswerInput{
			OwnerID:     playOwner,
			ChoiceIndex: choice - 1,
		})
		if err != nil {
			// The timer beat the submission; show the timeout pause
			if errors.IsFailedPrecondition(err) {
				return refresh(ctx, svc)
			}
			return nil, err
		}
		fmt.Println(out.State.Message)
		return out.State, nil
	}
}

func refresh(ctx context.Context, svc battle.Service) (*battle.Snapshot, error) {
	out, err := svc.GetState(ctx, &battle.GetStateInput{OwnerID: playOwner})
	if err != nil {
		return nil, err
	}
	return out.State, nil
}

func printOutcome(state *battle.Snapshot) {
	switch state.Phase {
	case battle.PhaseWon:
		fmt.Printf("\nVictory! +%d XP, +%d gold\n", state.Reward.XPAwarded, state.Reward.GoldAwarded)
		if state.Reward.LevelsGained > 0 {
			fmt.Printf("Level up! Now level %d\n", state.Reward.EndLevel)
		}
		for _, drop := range state.Reward.Drops {
			fmt.Printf("Found: %s\n", drop.ItemID)
		}
	case battle.PhaseLost:
		fmt.Printf("\nDefeated. Lost %d gold.\n", state.GoldPenalty)
	case battle.PhaseEscaped:
		fmt.Println("\nYou escaped.")
	}
}

func ensureCharacter(ctx context.Context, repo characters.Repository) error {
	_, err := repo.Get(ctx, characters.GetInput{OwnerID: playOwner})
	if err == nil {
		return nil
	}
	if !errors.IsNotFound(err) {
		return err
	}

	c := entities.NewStarter(playOwner, playName, clock.New().Now())
	if _, err := repo.Create(ctx, characters.CreateInput{Character: c}); err != nil {
		return errors.Wrap(err, "failed to create character")
	}
	fmt.Printf("Created character %s (level %d, %d HP)\n", c.Name, c.Level, c.HP)
	return nil
}

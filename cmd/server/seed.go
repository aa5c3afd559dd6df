package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mathquest/battle-api/internal/entities"
	"github.com/mathquest/battle-api/internal/errors"
	"github.com/mathquest/battle-api/internal/repositories/encounters"
	"github.com/mathquest/battle-api/internal/repositories/foes"
	"github.com/mathquest/battle-api/internal/repositories/items"
	"github.com/mathquest/battle-api/internal/repositories/questions"
)

// contentFile is the YAML layout of a seed file
type contentFile struct {
	Items      []entities.ItemDefinition      `yaml:"items"`
	Foes       []entities.Foe                 `yaml:"foes"`
	Questions  []entities.Question            `yaml:"questions"`
	Encounters []entities.EncounterDefinition `yaml:"encounters"`
}

var seedCmd = &cobra.Command{
	Use:   "seed <content.yaml>",
	Short: "Load game content into Redis",
	Long: `Seed reads a YAML content file of items, foes, questions, and
encounters, normalizes each entry, and writes it to Redis. Existing
entries with the same IDs are overwritten.`,
	Args: cobra.ExactArgs(1),
	RunE: runSeed,
}

func runSeed(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return errors.Wrapf(err, "failed to read %s", args[0])
	}

	var content contentFile
	if err := yaml.Unmarshal(data, &content); err != nil {
		return errors.Wrapf(err, "failed to parse %s", args[0])
	}

	r, err := buildRepos(redisAddr)
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	for i := range content.Items {
		def := &content.Items[i]
		if err := def.Normalize(); err != nil {
			return errors.Wrapf(err, "invalid item %q", def.ID)
		}
		if _, err := r.items.Put(ctx, items.PutInput{Definition: def}); err != nil {
			return errors.Wrapf(err, "failed to store item %q", def.ID)
		}
	}

	for i := range content.Foes {
		foe := &content.Foes[i]
		if err := foe.Normalize(); err != nil {
			return errors.Wrapf(err, "invalid foe %q", foe.ID)
		}
		if _, err := r.foes.Put(ctx, foes.PutInput{Foe: foe}); err != nil {
			return errors.Wrapf(err, "failed to store foe %q", foe.ID)
		}
	}

	for i := range content.Questions {
		q := &content.Questions[i]
		if err := q.Normalize(); err != nil {
			return errors.Wrapf(err, "invalid question %q", q.ID)
		}
		if _, err := r.questions.Put(ctx, questions.PutInput{Question: q}); err != nil {
			return errors.Wrapf(err, "failed to store question %q", q.ID)
		}
	}

	for i := range content.Encounters {
		enc := &content.Encounters[i]
		if err := enc.Normalize(); err != nil {
			return errors.Wrapf(err, "invalid encounter %q", enc.ID)
		}
		if _, err := r.encounters.Put(ctx, encounters.PutInput{Encounter: enc}); err != nil {
			return errors.Wrapf(err, "failed to store encounter %q", enc.ID)
		}
	}

	fmt.Printf("Seeded %d items, %d foes, %d questions, %d encounters\n",
		len(content.Items), len(content.Foes), len(content.Questions), len(content.Encounters))
	return nil
}

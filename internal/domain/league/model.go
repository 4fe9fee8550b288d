package league

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Type tells how a league publishes its table.
type Type string

const (
	TypeStandard   Type = "standard"
	TypeGroupStage Type = "group_stage"
)

// League is a volleyball competition and the data source endpoints serving it.
type League struct {
	ID                string `validate:"required"`
	Name              string `validate:"required"`
	Country           string `validate:"required"`
	CountryCode       string `validate:"required"`
	Season            string `validate:"required"`
	StandingsEndpoint string `validate:"required,startswith=/"`
	FixturesEndpoint  string `validate:"required,startswith=/"`
	ResultsEndpoint   string `validate:"required,startswith=/"`
	LiveEndpoint      string `validate:"required,startswith=/"`
	Type              Type   `validate:"omitempty,oneof=standard group_stage"`
	LogoURL           string `validate:"omitempty,url"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func (l League) Validate() error {
	if err := validate.Struct(l); err != nil {
		return fmt.Errorf("league %q: %w", l.ID, err)
	}
	return nil
}

func (l League) IsGroupStage() bool {
	return l.Type == TypeGroupStage
}

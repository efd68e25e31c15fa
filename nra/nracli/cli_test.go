package nracli

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/perinatalhealth/nra-app/nra/constants"
)

func TestSetUpApp(t *testing.T) {
	app := setUpApp()

	assert.Equal(t, Name, app.Name)
	assert.Equal(t, Usage, app.Usage)
	assert.Equal(t, constants.Version, app.Version)

	var names []string
	for _, c := range app.Commands {
		names = append(names, c.Name)
	}
	assert.ElementsMatch(t, []string{"run-rollup", "calc-window", "export-csv"}, names)
}

func TestExportCSVRequiresFile(t *testing.T) {
	app := setUpApp()
	err := app.Run([]string{"nra", "export-csv"})
	assert.EqualError(t, err, "CSV file path (--file) must be provided")
}

package fleet_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/temirov/reposync/internal/fleet"
)

func TestParseTimeout(testInstance *testing.T) {
	testCases := []struct {
		value            string
		expectedDuration time.Duration
		expectError      bool
	}{
		{value: "", expectedDuration: 0},
		{value: "none", expectedDuration: 0},
		{value: " NONE ", expectedDuration: 0},
		{value: "90s", expectedDuration: 90 * time.Second},
		{value: "10m", expectedDuration: 10 * time.Minute},
		{value: "1h30m", expectedDuration: 90 * time.Minute},
		{value: "0s", expectError: true},
		{value: "-5m", expectError: true},
		{value: "soon", expectError: true},
		{value: "10", expectError: true},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(fleetSubtestTemplateConstant, testCaseIndex, testCase.value), func(testInstance *testing.T) {
			duration, parseError := fleet.ParseTimeout(testCase.value)
			if testCase.expectError {
				require.ErrorIs(testInstance, parseError, fleet.ErrInvalidTimeout)
				return
			}
			require.NoError(testInstance, parseError)
			require.Equal(testInstance, testCase.expectedDuration, duration)
		})
	}
}

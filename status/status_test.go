package status

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatus_Classification(t *testing.T) {
	testCases := []struct {
		description string
		status      Status
		success     bool
		pending     bool
	}{
		{description: "success", status: Success, success: true},
		{description: "pending is success class", status: Pending, success: true, pending: true},
		{description: "unsuccessful", status: Unsuccessful},
		{description: "no interface", status: NoInterface},
		{description: "retry", status: Retry},
	}
	for _, testCase := range testCases {
		assert.Equal(t, testCase.success, testCase.status.IsSuccess(), testCase.description)
		assert.Equal(t, !testCase.success, testCase.status.IsError(), testCase.description)
		assert.Equal(t, testCase.pending, testCase.status.IsPending(), testCase.description)
	}
}

func TestStatus_Err(t *testing.T) {
	assert.Nil(t, Success.Err())
	assert.Nil(t, Pending.Err())
	err := Cancelled.Err()
	assert.NotNil(t, err)
	var sErr *Error
	assert.True(t, errors.As(err, &sErr))
	assert.Equal(t, Cancelled, sErr.Code)
}

func TestFromError(t *testing.T) {
	assert.Equal(t, Success, FromError(nil, Unsuccessful))
	assert.Equal(t, NoInterface, FromError(NoInterface.Err(), Unsuccessful))
	assert.Equal(t, Unsuccessful, FromError(fmt.Errorf("boom"), Unsuccessful))
}

func TestStatus_ToPendingResult(t *testing.T) {
	result, err := Pending.ToPendingResult()
	assert.Equal(t, StillPending, result)
	assert.Nil(t, err)

	result, err = Success.ToPendingResult()
	assert.Equal(t, Ready, result)
	assert.Nil(t, err)

	result, err = Unsuccessful.ToPendingResult()
	assert.Equal(t, Ready, result)
	assert.NotNil(t, err)
}

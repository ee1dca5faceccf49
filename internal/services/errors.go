package services

import (
	"fmt"

	"bizdesk/internal/common"
)

var (
	ErrOverpayment = fmt.Errorf("%w: payment exceeds outstanding amount", common.ErrValidation)
	ErrStageInUse  = fmt.Errorf("%w: stage still holds tenders", common.ErrConflict)
	ErrSameStage   = fmt.Errorf("%w: tender is already in this stage", common.ErrValidation)
	ErrNoStorage   = fmt.Errorf("%w: object storage is not configured", common.ErrUnavailable)
)

// invalid wraps a message as a validation failure.
func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", common.ErrValidation, fmt.Sprintf(format, args...))
}

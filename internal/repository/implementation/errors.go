package implementation

import (
	"errors"

	"subscription-billing-be/internal/repository/contract"

	"gorm.io/gorm"
)

// translateError maps gorm's translated driver errors onto the contract
// sentinel errors. Requires TranslateError enabled on the gorm config.
func translateError(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return contract.ErrDuplicate
	}
	return err
}

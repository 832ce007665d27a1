package workflow

import (
	"fmt"

	"gorm.io/gorm"
)

// AcquireDoctorPostingLock serializes streak/balance mutation per doctor
// across instances using MySQL advisory locks.
// NOTE: GET_LOCK is connection-scoped, so this must be called on the same
// *gorm.DB that will do the crediting transaction.
func AcquireDoctorPostingLock(tx *gorm.DB, doctorId int) error {
	lockName := fmt.Sprintf("carepoints:%d", doctorId)
	var ok int
	if err := tx.Raw("SELECT GET_LOCK(?, 30)", lockName).Scan(&ok).Error; err != nil {
		return err
	}
	if ok != 1 {
		return fmt.Errorf("could not acquire posting lock for doctor_id=%d", doctorId)
	}
	return nil
}

func ReleaseDoctorPostingLock(tx *gorm.DB, doctorId int) {
	lockName := fmt.Sprintf("carepoints:%d", doctorId)
	var _ok int
	_ = tx.Raw("SELECT RELEASE_LOCK(?)", lockName).Scan(&_ok).Error
}

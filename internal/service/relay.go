package service

import (
	"context"
	"errors"

	"github.com/ANIKETSHETTY47/digital-boiler-platform/internal/domain"
	"github.com/ANIKETSHETTY47/digital-boiler-platform/internal/repository"
)

// RelayCommand is the response shape the device polls for.
type RelayCommand struct {
	Mode             string   `json:"mode"`
	State            *int     `json:"state"`
	TOn              *float64 `json:"t_on"`
	TimerEnable      int      `json:"timer_enable"`
	TimerDurationMin int      `json:"timer_duration_min"`
	TargetTemp       *float64 `json:"target_temp"`
}

type RelayService struct {
	store repository.Store
}

// Poll returns the desired relay state for the device. If the one-shot
// timer flag is set it is reported once and cleared atomically in the same
// store operation; a crash after the clear loses the command (at-most-once
// by design, the device restarting its timer every poll is worse).
//
// Unknown devices get the auto/null defaults with a 200: the firmware polls
// this endpoint before its first ingest has registered the device.
func (s *RelayService) Poll(ctx context.Context, deviceUID string) (*RelayCommand, error) {
	cmd := &RelayCommand{Mode: domain.RelayModeAuto}

	dev, err := s.store.DeviceByUID(ctx, deviceUID)
	if errors.Is(err, repository.ErrNotFound) {
		return cmd, nil
	}
	if err != nil {
		return nil, err
	}
	cmd.TOn = dev.TOn

	row, err := s.store.ReadAndClearRelayTimer(ctx, dev.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return cmd, nil
	}
	if err != nil {
		return nil, err
	}

	cmd.Mode = row.Mode
	cmd.State = row.State
	cmd.TimerDurationMin = row.TimerDurationMin
	cmd.TargetTemp = row.TargetTemp
	if row.TimerEnable {
		cmd.TimerEnable = 1
	}
	return cmd, nil
}

// SetDesired writes the full (mode, state) tuple. Manual mode requires an
// explicit state of 0 or 1; auto mode stores a NULL state.
func (s *RelayService) SetDesired(ctx context.Context, deviceUID, mode string, state *int) error {
	switch mode {
	case domain.RelayModeManual:
		if state == nil || (*state != 0 && *state != 1) {
			return ErrStateRequired
		}
	case domain.RelayModeAuto:
		state = nil
	default:
		return ErrInvalidMode
	}

	dev, err := s.store.DeviceByUID(ctx, deviceUID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrDeviceNotFound
	}
	if err != nil {
		return err
	}
	return s.store.UpsertRelayDesired(ctx, dev.ID, mode, state)
}

// SetThreshold stores the t_on auto-relay threshold and resets the relay to
// auto so the new threshold takes effect immediately.
func (s *RelayService) SetThreshold(ctx context.Context, deviceUID string, tOn float64) error {
	dev, err := s.store.DeviceByUID(ctx, deviceUID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrDeviceNotFound
	}
	if err != nil {
		return err
	}
	if err := s.store.SetDeviceThreshold(ctx, dev.ID, tOn); err != nil {
		return err
	}
	return s.store.UpsertRelayDesired(ctx, dev.ID, domain.RelayModeAuto, nil)
}

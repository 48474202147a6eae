package domain

import "time"

// Relay control modes. When the mode is auto the desired state is NULL and
// the firmware decides using the t_on threshold.
const (
	RelayModeAuto   = "auto"
	RelayModeManual = "manual"
)

type Device struct {
	ID        int64     `db:"id" json:"id"`
	DeviceUID string    `db:"device_uid" json:"device_uid"`
	Name      string    `db:"name" json:"name"`
	TOn       *float64  `db:"t_on" json:"t_on"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type Sensor struct {
	ID        int64  `db:"id" json:"id"`
	DeviceID  int64  `db:"device_id" json:"device_id"`
	SensorUID string `db:"sensor_uid" json:"sensor_uid"`
	Type      string `db:"type" json:"type"`
	Unit      string `db:"unit" json:"unit"`
}

type Reading struct {
	ID        int64     `db:"id" json:"id"`
	SensorID  int64     `db:"sensor_id" json:"sensor_id"`
	Value     float64   `db:"value" json:"value"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// SensorReading is a reading joined with its sensor metadata, the shape the
// history and latest-values queries return.
type SensorReading struct {
	ID        int64     `db:"id" json:"id"`
	SensorUID string    `db:"sensor_uid" json:"sensor_uid"`
	Type      string    `db:"type" json:"type"`
	Unit      string    `db:"unit" json:"unit"`
	Value     float64   `db:"value" json:"value"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type EnergyHourly struct {
	ID        int64     `db:"id" json:"id"`
	DeviceID  int64     `db:"device_id" json:"device_id"`
	HourStart time.Time `db:"hour_start" json:"hour_start"`
	KWh       float64   `db:"kwh" json:"kwh"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// RelayDesired is the command the device polls. State is NULL while the
// mode is auto.
type RelayDesired struct {
	DeviceID         int64     `db:"device_id" json:"device_id"`
	Mode             string    `db:"mode" json:"mode"`
	State            *int      `db:"state" json:"state"`
	TimerEnable      bool      `db:"timer_enable" json:"timer_enable"`
	TimerDurationMin int       `db:"timer_duration_min" json:"timer_duration_min"`
	TargetTemp       *float64  `db:"target_temp" json:"target_temp"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

type RelayLog struct {
	ID        int64     `db:"id" json:"id"`
	DeviceID  int64     `db:"device_id" json:"device_id"`
	State     int       `db:"state" json:"state"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

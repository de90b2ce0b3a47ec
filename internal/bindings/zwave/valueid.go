package zwave

import (
	"fmt"
	"strconv"
	"strings"
)

// Genre classifies a value by who it is meant for.
type Genre uint8

// Value genres. Only Basic and User values are exposed; only User values are
// bindable by a device rule.
const (
	GenreBasic Genre = iota + 1
	GenreUser
	GenreConfig
	GenreSystem
)

// String returns the genre name.
func (g Genre) String() string {
	switch g {
	case GenreBasic:
		return "basic"
	case GenreUser:
		return "user"
	case GenreConfig:
		return "config"
	case GenreSystem:
		return "system"
	default:
		return "unknown"
	}
}

// ValueType is the native storage type of a value.
type ValueType uint8

// Native value types.
const (
	TypeBool ValueType = iota + 1
	TypeByte
	TypeDecimal
	TypeInt
	TypeList
	TypeSchedule
	TypeShort
	TypeString
	TypeButton
	TypeRaw
)

// String returns the native type name.
func (t ValueType) String() string {
	switch t {
	case TypeBool:
		return "bool"
	case TypeByte:
		return "byte"
	case TypeDecimal:
		return "decimal"
	case TypeInt:
		return "int"
	case TypeList:
		return "list"
	case TypeSchedule:
		return "schedule"
	case TypeShort:
		return "short"
	case TypeString:
		return "string"
	case TypeButton:
		return "button"
	case TypeRaw:
		return "raw"
	default:
		return "unknown"
	}
}

// Collapsed returns the name used when matching a device rule's value_type:
// byte, short and int are "int"; decimal is "float"; bool, string and raw map
// to themselves. Unsupported types return their native name.
func (t ValueType) Collapsed() string {
	switch t {
	case TypeByte, TypeShort, TypeInt:
		return "int"
	case TypeDecimal:
		return "float"
	default:
		return t.String()
	}
}

// Supported reports whether values of this type can be read and written.
func (t ValueType) Supported() bool {
	switch t {
	case TypeBool, TypeByte, TypeDecimal, TypeInt, TypeShort, TypeString, TypeRaw:
		return true
	default:
		return false
	}
}

// CommandClass is a Z-Wave command class identifier.
type CommandClass uint8

// Command classes referenced by name in device rules.
const (
	ClassBasic                CommandClass = 0x20
	ClassSwitchBinary         CommandClass = 0x25
	ClassSwitchMultilevel     CommandClass = 0x26
	ClassSceneActivation      CommandClass = 0x2B
	ClassSensorBinary         CommandClass = 0x30
	ClassSensorMultilevel     CommandClass = 0x31
	ClassMeter                CommandClass = 0x32
	ClassColorSwitch          CommandClass = 0x33
	ClassThermostatMode       CommandClass = 0x40
	ClassThermostatSetpoint   CommandClass = 0x43
	ClassCentralScene         CommandClass = 0x5B
	ClassZWavePlusInfo        CommandClass = 0x5E
	ClassDoorLock             CommandClass = 0x62
	ClassConfiguration        CommandClass = 0x70
	ClassNotification         CommandClass = 0x71
	ClassManufacturerSpecific CommandClass = 0x72
	ClassPowerlevel           CommandClass = 0x73
	ClassProtection           CommandClass = 0x75
	ClassFirmwareUpdate       CommandClass = 0x7A
	ClassBattery              CommandClass = 0x80
	ClassWakeUp               CommandClass = 0x84
	ClassAssociation          CommandClass = 0x85
	ClassVersion              CommandClass = 0x86
	ClassIndicator            CommandClass = 0x87
	ClassMultiChannel         CommandClass = 0x60
	ClassMultiChannelAssoc    CommandClass = 0x8E
	ClassAssociationGroupInfo CommandClass = 0x59
	ClassDeviceResetLocally   CommandClass = 0x5A
)

var classNames = map[CommandClass]string{
	ClassBasic:                "basic",
	ClassSwitchBinary:         "switch_binary",
	ClassSwitchMultilevel:     "switch_multilevel",
	ClassSceneActivation:      "scene_activation",
	ClassSensorBinary:         "sensor_binary",
	ClassSensorMultilevel:     "sensor_multilevel",
	ClassMeter:                "meter",
	ClassColorSwitch:          "color",
	ClassThermostatMode:       "thermostat_mode",
	ClassThermostatSetpoint:   "thermostat_setpoint",
	ClassCentralScene:         "central_scene",
	ClassZWavePlusInfo:        "zwaveplus_info",
	ClassDoorLock:             "door_lock",
	ClassConfiguration:        "configuration",
	ClassNotification:         "alarm",
	ClassManufacturerSpecific: "manufacturer_specific",
	ClassPowerlevel:           "powerlevel",
	ClassProtection:           "protection",
	ClassFirmwareUpdate:       "firmware_update_md",
	ClassBattery:              "battery",
	ClassWakeUp:               "wake_up",
	ClassAssociation:          "association",
	ClassVersion:              "version",
	ClassIndicator:            "indicator",
	ClassMultiChannel:         "multi_instance",
	ClassMultiChannelAssoc:    "multi_instance_association",
	ClassAssociationGroupInfo: "association_grp_info",
	ClassDeviceResetLocally:   "device_reset_locally",
}

// String returns the class name, or its hex id when the class is unnamed.
func (c CommandClass) String() string {
	if name, ok := classNames[c]; ok {
		return name
	}
	return fmt.Sprintf("0x%02x", uint8(c))
}

// Matches reports whether s names this class. s may be the class name in any
// case, a decimal id, or a 0x-prefixed hex id.
func (c CommandClass) Matches(s string) bool {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, c.String()) {
		return true
	}
	n, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return false
	}
	return CommandClass(n) == c
}

// genreOf classifies a command class. Basic and Configuration have their own
// genres; management classes are System; everything else is User.
func genreOf(c CommandClass) Genre {
	switch c {
	case ClassBasic:
		return GenreBasic
	case ClassConfiguration:
		return GenreConfig
	case ClassVersion, ClassManufacturerSpecific, ClassAssociation,
		ClassMultiChannelAssoc, ClassAssociationGroupInfo, ClassZWavePlusInfo,
		ClassPowerlevel, ClassFirmwareUpdate, ClassWakeUp,
		ClassDeviceResetLocally, ClassMultiChannel:
		return GenreSystem
	default:
		return GenreUser
	}
}

// ValueID identifies one native value on the mesh. It is comparable and used
// as a map key.
type ValueID struct {
	HomeID       uint32
	NodeID       uint16
	CommandClass CommandClass
	Endpoint     uint8
	Property     string
	PropertyKey  string
	Genre        Genre
	Type         ValueType
}

// String renders the id for logs.
func (v ValueID) String() string {
	s := fmt.Sprintf("%08x:%d:%s:%d:%s", v.HomeID, v.NodeID, v.CommandClass, v.Endpoint, v.Property)
	if v.PropertyKey != "" {
		s += ":" + v.PropertyKey
	}
	return s
}

// Descriptor is what the matcher sees of a native value.
type Descriptor struct {
	ID    ValueID
	Label string
}

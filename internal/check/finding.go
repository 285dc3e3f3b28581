// Package check turns collected host facts into findings. Every evaluator is
// a pure function of its records and the thresholds.
package check

// Category names the check that produced a Finding.
type Category string

const (
	CategoryIdlePartition     Category = "idle_partition"
	CategoryLowDiskSpace      Category = "low_disk_space"
	CategoryExternalDrive     Category = "external_drive"
	CategoryNetworkShare      Category = "network_share"
	CategoryWorldWritable     Category = "world_writable_file"
	CategoryInsecureMount     Category = "insecure_mount_options"
	CategoryUptime            Category = "uptime_exceeded"
	CategoryTemperature       Category = "temperature_exceeded"
	CategoryEditingOnExternal Category = "editing_on_external"
	CategoryLargeDeletedOpen  Category = "large_deleted_open_file"
	CategoryFsCorruption      Category = "fs_corruption"
)

var categoryTitles = map[Category]string{
	CategoryIdlePartition:     "Idle Partition",
	CategoryLowDiskSpace:      "Low Disk Space",
	CategoryExternalDrive:     "External Drive Mounted",
	CategoryNetworkShare:      "Network Share Mounted",
	CategoryWorldWritable:     "World-Writable File",
	CategoryInsecureMount:     "Insecure Mount Options",
	CategoryUptime:            "Long Uptime",
	CategoryTemperature:       "High Temperature",
	CategoryEditingOnExternal: "File Open on External Drive",
	CategoryLargeDeletedOpen:  "Large Deleted File Still Open",
	CategoryFsCorruption:      "Filesystem Errors",
}

// Title returns the human-readable heading used for notifications.
func (c Category) Title() string {
	if t, ok := categoryTitles[c]; ok {
		return t
	}
	return string(c)
}

// Urgency maps 1:1 onto desktop notification urgency levels.
type Urgency string

const (
	UrgencyNormal   Urgency = "normal"
	UrgencyCritical Urgency = "critical"
)

// Finding is a single warning produced by an evaluator.
type Finding struct {
	Category Category
	Subject  string
	Detail   string
	Urgency  Urgency
}

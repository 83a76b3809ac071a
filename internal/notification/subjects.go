package notification

import "fmt"

func TicketSubject(title string) string {
	return fmt.Sprintf("New Maintenance Ticket Notification : %s", title)
}

func ReportSubject(title string) string {
	return fmt.Sprintf("Maintenance Report : %s", title)
}

func MachineSubject(name string) string {
	return fmt.Sprintf("New Machine Assignment : %s", name)
}

func ChecklistSubject(title string) string {
	return fmt.Sprintf("Upcoming Checklist : %s", title)
}

func SparePartSubject(name string) string {
	return fmt.Sprintf("Spare Part Reorder : %s", name)
}

const PasswordSubject = "Password Reset Code"

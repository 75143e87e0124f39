package shared

// Academic permissions.
const (
	PermStudentsView     = "students.view"
	PermStudentsCreate   = "students.create"
	PermStudentsUpdate   = "students.update"
	PermStudentsDelete   = "students.delete"
	PermStudentsPromote  = "students.promote"
	PermStudentsTransfer = "students.transfer"

	PermStaffView   = "staff.view"
	PermStaffManage = "staff.manage"

	PermAttendanceView = "attendance.view"
	PermAttendanceMark = "attendance.mark"

	PermExamsView           = "exams.view"
	PermExamsManage         = "exams.manage"
	PermExamsPublishResults = "exams.publish_results"

	PermTimetableView   = "timetable.view"
	PermTimetableManage = "timetable.manage"

	PermLMSView   = "lms.view"
	PermLMSManage = "lms.manage"
)

// Finance permissions.
const (
	PermFeesView    = "fees.view"
	PermFeesManage  = "fees.manage"
	PermFeesCollect = "fees.collect"

	PermPaymentsView   = "payments.view"
	PermPaymentsRefund = "payments.refund"
)

// Operations permissions.
const (
	PermHostelView   = "hostel.view"
	PermHostelManage = "hostel.manage"

	PermTransportView   = "transport.view"
	PermTransportManage = "transport.manage"

	PermLibraryView  = "library.view"
	PermLibraryIssue = "library.issue"

	PermNotificationsSend = "notifications.send"
)

// AcademicScopes lists permissions for students, staff and teaching modules.
func AcademicScopes() []string {
	return []string{
		PermStudentsView,
		PermStudentsCreate,
		PermStudentsUpdate,
		PermStudentsDelete,
		PermStudentsPromote,
		PermStudentsTransfer,
		PermStaffView,
		PermStaffManage,
		PermAttendanceView,
		PermAttendanceMark,
		PermExamsView,
		PermExamsManage,
		PermExamsPublishResults,
		PermTimetableView,
		PermTimetableManage,
		PermLMSView,
		PermLMSManage,
	}
}

// FinanceScopes lists fee and payment permissions.
func FinanceScopes() []string {
	return []string{
		PermFeesView,
		PermFeesManage,
		PermFeesCollect,
		PermPaymentsView,
		PermPaymentsRefund,
	}
}

// OperationsScopes lists hostel, transport, library and notification permissions.
func OperationsScopes() []string {
	return []string{
		PermHostelView,
		PermHostelManage,
		PermTransportView,
		PermTransportManage,
		PermLibraryView,
		PermLibraryIssue,
		PermNotificationsSend,
	}
}

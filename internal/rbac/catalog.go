package rbac

import (
	"github.com/school-erp/school-erp/internal/shared"
)

// SystemCatalog returns the permissions seeded by Initialize. Each call
// returns a fresh slice.
func SystemCatalog() []CatalogEntry {
	return []CatalogEntry{
		{Key: shared.PermPermissionsView, Name: "View Permissions", Module: "permissions", Description: "List permissions, grants and the role hierarchy"},
		{Key: shared.PermPermissionsManage, Name: "Manage Permissions", Module: "permissions", Description: "Create permissions and change grants"},
		{Key: shared.PermUsersView, Name: "View Users", Module: "users"},
		{Key: shared.PermUsersEdit, Name: "Edit Users", Module: "users"},
		{Key: shared.PermActivityView, Name: "View Activity Log", Module: "activity"},

		{Key: shared.PermStudentsView, Name: "View Students", Module: "students"},
		{Key: shared.PermStudentsCreate, Name: "Create Students", Module: "students"},
		{Key: shared.PermStudentsUpdate, Name: "Update Students", Module: "students"},
		{Key: shared.PermStudentsDelete, Name: "Delete Students", Module: "students"},
		{Key: shared.PermStudentsPromote, Name: "Promote Students", Module: "students", Description: "Move students to the next class"},
		{Key: shared.PermStudentsTransfer, Name: "Transfer Students", Module: "students"},
		{Key: shared.PermStaffView, Name: "View Staff", Module: "staff"},
		{Key: shared.PermStaffManage, Name: "Manage Staff", Module: "staff"},
		{Key: shared.PermAttendanceView, Name: "View Attendance", Module: "attendance"},
		{Key: shared.PermAttendanceMark, Name: "Mark Attendance", Module: "attendance"},
		{Key: shared.PermExamsView, Name: "View Exams", Module: "exams"},
		{Key: shared.PermExamsManage, Name: "Manage Exams", Module: "exams"},
		{Key: shared.PermExamsPublishResults, Name: "Publish Exam Results", Module: "exams"},
		{Key: shared.PermTimetableView, Name: "View Timetable", Module: "timetable"},
		{Key: shared.PermTimetableManage, Name: "Manage Timetable", Module: "timetable"},
		{Key: shared.PermLMSView, Name: "View Learning Materials", Module: "lms"},
		{Key: shared.PermLMSManage, Name: "Manage Learning Materials", Module: "lms"},

		{Key: shared.PermFeesView, Name: "View Fees", Module: "fees"},
		{Key: shared.PermFeesManage, Name: "Manage Fee Structures", Module: "fees"},
		{Key: shared.PermFeesCollect, Name: "Collect Fees", Module: "fees"},
		{Key: shared.PermPaymentsView, Name: "View Payments", Module: "payments"},
		{Key: shared.PermPaymentsRefund, Name: "Refund Payments", Module: "payments"},

		{Key: shared.PermHostelView, Name: "View Hostel", Module: "hostel"},
		{Key: shared.PermHostelManage, Name: "Manage Hostel", Module: "hostel"},
		{Key: shared.PermTransportView, Name: "View Transport", Module: "transport"},
		{Key: shared.PermTransportManage, Name: "Manage Transport", Module: "transport"},
		{Key: shared.PermLibraryView, Name: "View Library", Module: "library"},
		{Key: shared.PermLibraryIssue, Name: "Issue Library Books", Module: "library"},
		{Key: shared.PermNotificationsSend, Name: "Send Notifications", Module: "notifications"},
	}
}

// DefaultRoleGrants lists the allowed role grants written by the development seed.
func DefaultRoleGrants() map[shared.Role][]string {
	return map[shared.Role][]string{
		shared.RolePrincipal: {
			shared.PermPermissionsView,
			shared.PermUsersView,
			shared.PermActivityView,
			shared.PermStudentsPromote,
			shared.PermStudentsTransfer,
			shared.PermStaffManage,
			shared.PermExamsPublishResults,
			shared.PermNotificationsSend,
		},
		shared.RoleTeacher: {
			shared.PermStudentsView,
			shared.PermAttendanceView,
			shared.PermAttendanceMark,
			shared.PermExamsView,
			shared.PermExamsManage,
			shared.PermTimetableView,
			shared.PermLMSView,
			shared.PermLMSManage,
		},
		shared.RoleStudent: {
			shared.PermTimetableView,
			shared.PermLMSView,
			shared.PermExamsView,
		},
		shared.RoleParent: {
			shared.PermFeesView,
			shared.PermPaymentsView,
			shared.PermAttendanceView,
		},
		shared.RoleAccountant: {
			shared.PermFeesView,
			shared.PermFeesManage,
			shared.PermFeesCollect,
			shared.PermPaymentsView,
			shared.PermPaymentsRefund,
		},
		shared.RoleLibrarian: {
			shared.PermLibraryView,
			shared.PermLibraryIssue,
		},
		shared.RoleTransportStaff: {
			shared.PermTransportView,
			shared.PermTransportManage,
		},
	}
}

// DefaultHierarchy lists the edges written by the development seed.
func DefaultHierarchy() []HierarchyInput {
	return []HierarchyInput{
		{ParentRole: string(shared.RoleAdmin), ChildRole: string(shared.RolePrincipal)},
		{ParentRole: string(shared.RolePrincipal), ChildRole: string(shared.RoleTeacher)},
		{ParentRole: string(shared.RolePrincipal), ChildRole: string(shared.RoleAccountant)},
	}
}

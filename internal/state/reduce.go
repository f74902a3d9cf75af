package state

// Action is a state transition request.
type Action interface {
	isAction()
}

type (
	SwitchView     struct{ View View }
	SwitchUser     struct{ UserID string }
	SelectAccount  struct{ AccountID string }
	SelectFolder   struct{ FolderID string }
	SortBy         struct{ Column string }
	ToggleSidebar  struct{}
	SetTheme       struct{ Theme string }
	SelectListType struct{ ListType string }
)

// ResizeColumn sets the width of an inbox column in cells.
type ResizeColumn struct {
	Column string
	Width  int
}

func (SwitchView) isAction()     {}
func (SwitchUser) isAction()     {}
func (SelectAccount) isAction()  {}
func (SelectFolder) isAction()   {}
func (SortBy) isAction()         {}
func (ResizeColumn) isAction()   {}
func (ToggleSidebar) isAction()  {}
func (SetTheme) isAction()       {}
func (SelectListType) isAction() {}

// Reduce returns the state that results from applying a to s. It never
// mutates s.
func Reduce(s ViewState, a Action) ViewState {
	next := s.clone()

	switch a := a.(type) {
	case SwitchView:
		if a.View.Valid() {
			next.View = a.View
		}
	case SwitchUser:
		if a.UserID != "" {
			next.UserID = a.UserID
		}
	case SelectAccount:
		next.AccountID = orAll(a.AccountID)
		next.FolderID = All
	case SelectFolder:
		next.FolderID = orAll(a.FolderID)
	case SortBy:
		if next.SortColumn == a.Column {
			if next.SortDirection == SortAsc {
				next.SortDirection = SortDesc
			} else {
				next.SortDirection = SortAsc
			}
		} else {
			next.SortColumn = a.Column
			next.SortDirection = SortAsc
			if a.Column == "date" {
				next.SortDirection = SortDesc
			}
		}
	case ResizeColumn:
		next.ColumnWidths[a.Column] = max(MinColumnWidth, a.Width)
	case ToggleSidebar:
		next.SidebarCollapsed = !next.SidebarCollapsed
	case SetTheme:
		switch a.Theme {
		case ThemeLight, ThemeDark, ThemeSystem:
			next.Theme = a.Theme
		}
	case SelectListType:
		if a.ListType != "" {
			next.ListType = a.ListType
		}
	}

	return next
}

func orAll(id string) string {
	if id == "" {
		return All
	}
	return id
}

package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/Joseda-hg/lazytodo/internal/model"
	"github.com/Joseda-hg/lazytodo/internal/tasks"
	goerrors "github.com/go-errors/errors"
	"github.com/jesseduffield/gocui"
)

const (
	viewHeader = "header"
	viewInput  = "input"
	viewList   = "list"
	viewFooter = "footer"
)

// UI is the compact list shell: one input line, one list, delete. It keeps
// its own selection and status; the task list is reloaded from the
// repository after every command.
type UI struct {
	repo tasks.Repository
	gui  *gocui.Gui

	items    []model.Task
	selected int
	focus    string
	status   string

	errs <-chan error
}

type Option func(*UI)

// WithErrors shows each error received on errs in the footer until errs is
// closed. Used for failures of work running beside the UI, such as the web
// server.
func WithErrors(errs <-chan error) Option {
	return func(u *UI) {
		u.errs = errs
	}
}

func New(repo tasks.Repository, opts ...Option) *UI {
	u := &UI{repo: repo, focus: viewInput}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

func Run(repo tasks.Repository, opts ...Option) error {
	gui, err := gocui.NewGui(gocui.NewGuiOpts{OutputMode: gocui.OutputNormal})
	if err != nil {
		return err
	}
	defer gui.Close()

	ui := New(repo, opts...)
	ui.gui = gui

	gui.SetManagerFunc(ui.layout)
	if err := ui.bindKeys(gui); err != nil {
		return err
	}
	if err := ui.loadTasks(); err != nil {
		return err
	}
	if ui.errs != nil {
		go ui.watchErrors(func(apply func()) {
			gui.Update(func(*gocui.Gui) error {
				apply()
				return nil
			})
		})
	}

	if err := gui.MainLoop(); err != nil && !goerrors.Is(err, gocui.ErrQuit) {
		return err
	}
	return nil
}

func (u *UI) bindKeys(gui *gocui.Gui) error {
	if err := gui.SetKeybinding("", gocui.KeyCtrlC, gocui.ModNone, u.quit); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", gocui.KeyTab, gocui.ModNone, u.switchFocus); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewInput, gocui.KeyEnter, gocui.ModNone, u.submitInput); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewInput, gocui.KeyEsc, gocui.ModNone, u.clearInput); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewList, 'q', gocui.ModNone, u.quit); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewList, 'r', gocui.ModNone, u.reload); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewList, 'a', gocui.ModNone, u.focusInput); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewList, 'd', gocui.ModNone, u.deleteSelected); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewList, gocui.KeyDelete, gocui.ModNone, u.deleteSelected); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewList, gocui.KeyArrowDown, gocui.ModNone, u.moveDown); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewList, 'j', gocui.ModNone, u.moveDown); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewList, gocui.KeyArrowUp, gocui.ModNone, u.moveUp); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewList, 'k', gocui.ModNone, u.moveUp); err != nil {
		return err
	}
	return gui.SetViewClickBinding(&gocui.ViewMouseBinding{ViewName: viewList, Key: gocui.MouseLeft, Handler: func(opts gocui.ViewMouseBindingOpts) error {
		return u.onListClick(gui, opts)
	}})
}

func (u *UI) layout(gui *gocui.Gui) error {
	maxX, maxY := gui.Size()
	if maxX <= 0 || maxY <= 0 {
		return nil
	}

	headerView, err := gui.SetView(viewHeader, 0, 0, maxX-1, 0, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	headerView.Frame = false
	u.renderHeader(headerView)

	inputView, err := gui.SetView(viewInput, 0, 1, maxX-1, 3, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	if goerrors.Is(err, gocui.ErrUnknownView) {
		inputView.Title = "Enter task"
		inputView.Editable = true
		inputView.Editor = gocui.DefaultEditor
		_, _ = gui.SetCurrentView(viewInput)
	}
	applyViewStyle(inputView, u.focus == viewInput, false)

	footerY0 := max(maxY-3, 5)
	listView, err := gui.SetView(viewList, 0, 4, maxX-1, footerY0-1, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	listView.Title = "Tasks"
	applyViewStyle(listView, u.focus == viewList, true)
	u.renderList(listView)

	footerView, err := gui.SetView(viewFooter, 0, footerY0, maxX-1, maxY-1, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	footerView.Frame = false
	footerView.FgColor = gocui.ColorDefault | gocui.AttrDim
	u.renderFooter(footerView)

	return nil
}

// watchErrors hands each received error to update, which must run the
// status change on the UI goroutine.
func (u *UI) watchErrors(update func(apply func())) {
	for err := range u.errs {
		if err == nil {
			continue
		}
		update(func() {
			u.status = err.Error()
		})
	}
}

func (u *UI) loadTasks() error {
	items, err := u.repo.List(context.Background(), model.StatusAll)
	if err != nil {
		return err
	}
	u.items = items
	u.selected = clampSelection(u.selected, len(u.items))
	return nil
}

func (u *UI) renderHeader(view *gocui.View) {
	view.Clear()
	fmt.Fprintf(view, "lazytodo | %s", formatCount(len(u.items)))
}

func (u *UI) renderList(view *gocui.View) {
	view.Clear()
	if len(u.items) == 0 {
		fmt.Fprint(view, "  No tasks yet")
		return
	}
	for i, task := range u.items {
		prefix := " "
		if i == u.selected {
			prefix = ">"
		}
		fmt.Fprintf(view, "%s %s\n", prefix, formatItem(task))
	}
	if u.focus == viewList {
		view.SetCursor(0, u.selected)
	}
}

func (u *UI) renderFooter(view *gocui.View) {
	view.Clear()
	fmt.Fprintln(view, "enter add | tab switch | j/k move | d delete | r reload | q quit")
	if u.status != "" {
		fmt.Fprint(view, u.status)
	}
}

func (u *UI) submitInput(gui *gocui.Gui, view *gocui.View) error {
	value := ""
	if view != nil {
		value = view.Buffer()
		view.Clear()
		view.SetCursor(0, 0)
		view.SetOrigin(0, 0)
	}
	return u.add(value)
}

// add ignores blank input; the repository itself stores whatever it gets.
func (u *UI) add(raw string) error {
	title, ok := normalizeInput(raw)
	if !ok {
		return nil
	}
	if _, err := u.repo.Add(context.Background(), model.NewTask{Title: title}); err != nil {
		u.status = err.Error()
		return nil
	}
	u.status = ""
	if err := u.loadTasks(); err != nil {
		return err
	}
	u.selected = len(u.items) - 1
	return nil
}

func (u *UI) clearInput(_ *gocui.Gui, view *gocui.View) error {
	if view != nil {
		view.Clear()
		view.SetCursor(0, 0)
	}
	return nil
}

func (u *UI) deleteSelected(_ *gocui.Gui, _ *gocui.View) error {
	if u.selected < 0 || u.selected >= len(u.items) {
		return nil
	}
	if _, err := u.repo.Delete(context.Background(), u.items[u.selected].ID); err != nil {
		u.status = err.Error()
		return nil
	}
	u.status = ""
	return u.loadTasks()
}

func (u *UI) moveDown(_ *gocui.Gui, _ *gocui.View) error {
	if u.selected < len(u.items)-1 {
		u.selected++
	}
	return nil
}

func (u *UI) moveUp(_ *gocui.Gui, _ *gocui.View) error {
	if u.selected > 0 {
		u.selected--
	}
	return nil
}

func (u *UI) reload(_ *gocui.Gui, _ *gocui.View) error {
	return u.loadTasks()
}

func (u *UI) switchFocus(gui *gocui.Gui, _ *gocui.View) error {
	if u.focus == viewInput {
		return u.setFocus(gui, viewList)
	}
	return u.setFocus(gui, viewInput)
}

func (u *UI) focusInput(gui *gocui.Gui, _ *gocui.View) error {
	return u.setFocus(gui, viewInput)
}

func (u *UI) setFocus(gui *gocui.Gui, name string) error {
	u.focus = name
	if gui != nil {
		_, _ = gui.SetCurrentView(name)
	}
	return nil
}

func (u *UI) onListClick(gui *gocui.Gui, opts gocui.ViewMouseBindingOpts) error {
	if len(u.items) == 0 {
		return nil
	}
	view, err := gui.View(viewList)
	if err != nil {
		return nil
	}

	_, y0, _, _ := view.Dimensions()
	_, oy := view.Origin()
	u.selected = clampSelection(opts.Y-y0-1+oy, len(u.items))
	return u.setFocus(gui, viewList)
}

func (u *UI) quit(_ *gocui.Gui, _ *gocui.View) error {
	return gocui.ErrQuit
}

func applyViewStyle(view *gocui.View, focused bool, highlight bool) {
	view.Frame = true
	view.Highlight = focused && highlight
	view.SelBgColor = gocui.ColorBlue
	view.SelFgColor = gocui.ColorBlack
	if focused {
		view.FrameColor = gocui.ColorCyan
		view.TitleColor = gocui.ColorCyan
	} else {
		view.FrameColor = gocui.ColorDefault
		view.TitleColor = gocui.ColorDefault
	}
}

func clampSelection(selected, length int) int {
	if length == 0 {
		return 0
	}
	return min(max(selected, 0), length-1)
}

func normalizeInput(raw string) (string, bool) {
	title := strings.TrimSpace(raw)
	return title, title != ""
}

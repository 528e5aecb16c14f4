package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"studentspend/internal/client"
	"studentspend/internal/core"
)

func (c *ctl) login(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: login <regNo>")
	}
	if err := c.app.Login(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "Logged in as %s (%s)\n", c.app.Student.Name, c.app.Student.RegNo)
	return nil
}

func (c *ctl) logout(context.Context, []string) error {
	if err := c.app.Logout(); err != nil {
		return err
	}
	fmt.Fprintln(c.stdout, "Logged out")
	return nil
}

func (c *ctl) whoami(context.Context, []string) error {
	st := c.app.Student
	fmt.Fprintf(c.stdout, "%s (%s)\n", st.Name, st.RegNo)
	if st.Email != "" {
		fmt.Fprintf(c.stdout, "Email:   %s\n", st.Email)
	}
	if st.Section != "" {
		fmt.Fprintf(c.stdout, "Section: %s\n", st.Section)
	}
	fmt.Fprintf(c.stdout, "Budget:  %s %s\n", core.FormatAmount(st.Budget.Amount), st.Budget.Type)
	fmt.Fprintf(c.stdout, "Income:  %s\n", core.FormatAmount(st.Income))
	return nil
}

func (c *ctl) dashboard(context.Context, []string) error {
	d := c.app.Dashboard()
	w := tabwriter.NewWriter(c.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Expenses\t%s\n", core.FormatAmount(d.TotalExpenses))
	fmt.Fprintf(w, "Split share\t%s\n", core.FormatAmount(d.TotalSplitShare))
	fmt.Fprintf(w, "Total spent\t%s\n", core.FormatAmount(d.CombinedExpenses))
	fmt.Fprintf(w, "Income\t%s\n", core.FormatAmount(d.Income))
	fmt.Fprintf(w, "Savings\t%s\n", core.FormatAmount(d.Savings))
	fmt.Fprintf(w, "Budget (%s)\t%s\t%s used\t%s\n", d.Budget.Type, core.FormatAmount(d.Budget.Amount), core.FormatPercent(d.BudgetUsedPercent), d.BudgetStatus)
	if len(d.Categories) > 0 {
		fmt.Fprintln(w, "\nBy category")
		for _, cat := range d.Categories {
			fmt.Fprintf(w, "  %s\t%s\n", cat.Name, core.FormatAmount(cat.Value))
		}
	}
	if len(d.Months) > 0 {
		fmt.Fprintln(w, "\nBy month")
		for _, m := range d.Months {
			fmt.Fprintf(w, "  %s\t%s\n", m.Month, core.FormatAmount(m.Amount))
		}
	}
	return w.Flush()
}

func (c *ctl) expenses(context.Context, []string) error {
	if len(c.app.Expenses) == 0 {
		fmt.Fprintln(c.stdout, "No expenses")
		return nil
	}
	w := tabwriter.NewWriter(c.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tCATEGORY\tNAME\tAMOUNT")
	for _, e := range c.app.Expenses {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", e.ID, e.Date, e.Category, e.Name, core.FormatAmount(e.Amount))
	}
	return w.Flush()
}

func (c *ctl) expense(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: expense add|edit <id>|delete <id>")
	}
	action, args := args[0], args[1:]

	if action == "delete" {
		if len(args) != 1 {
			return errors.New("usage: expense delete <id>")
		}
		if err := c.app.DeleteExpense(ctx, args[0]); err != nil {
			return err
		}
		fmt.Fprintln(c.stdout, "Expense deleted")
		return nil
	}

	var (
		id       string
		name     string
		amount   float64
		category string
		date     string
	)
	if action == "edit" {
		if len(args) == 0 {
			return errors.New("usage: expense edit <id> [flags]")
		}
		id, args = args[0], args[1:]
	} else if action != "add" {
		return fmt.Errorf("unknown expense action %q", action)
	}

	fs := c.flags("expense " + action)
	fs.StringVar(&name, "name", "", "expense name")
	fs.Float64Var(&amount, "amount", 0, "amount")
	fs.StringVar(&category, "category", string(core.CategoryFood), "one of Food, Transport, Books, Entertainment, Utilities, Others")
	fs.StringVar(&date, "date", "", "date as YYYY-MM-DD, defaults to today")
	if err := fs.Parse(true, args); err != nil {
		return err
	}

	form := client.ExpenseForm{Name: name, Amount: amount, Category: core.Category(category)}
	if date != "" {
		d, err := core.ParseDate(date)
		if err != nil {
			return fmt.Errorf("--date %q: %w", date, err)
		}
		form.Date = d
	}

	if action == "add" {
		e, err := c.app.AddExpense(ctx, form)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.stdout, "Added %s %s (%s)\n", e.Name, core.FormatAmount(e.Amount), e.ID)
		return nil
	}
	e, err := c.app.EditExpense(ctx, id, form)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "Updated %s %s (%s)\n", e.Name, core.FormatAmount(e.Amount), e.ID)
	return nil
}

func (c *ctl) budget(ctx context.Context, args []string) error {
	var (
		period string
		amount float64
	)
	fs := c.flags("budget")
	fs.StringVar(&period, "type", string(c.app.Student.Budget.Type), "weekly or monthly")
	fs.Float64Var(&amount, "amount", c.app.Student.Budget.Amount, "budget amount")
	if err := fs.Parse(true, args); err != nil {
		return err
	}
	if err := c.app.SetBudget(ctx, core.Budget{Type: core.BudgetPeriod(period), Amount: amount}); err != nil {
		return err
	}
	b := c.app.Student.Budget
	fmt.Fprintf(c.stdout, "Budget set to %s %s\n", core.FormatAmount(b.Amount), b.Type)
	return nil
}

func (c *ctl) income(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: income <amount>")
	}
	v, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("invalid amount %q", args[0])
	}
	if err := c.app.SetIncome(ctx, v); err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "Income set to %s\n", core.FormatAmount(c.app.Student.Income))
	return nil
}

func (c *ctl) search(ctx context.Context, args []string) error {
	term := strings.Join(args, " ")
	if !client.ShouldSearch(strings.TrimSpace(term)) {
		fmt.Fprintf(c.stdout, "Type at least %d characters to search\n", client.MinSearchTermRune)
		return nil
	}
	found, err := c.app.Search(ctx, term)
	if err != nil {
		return err
	}
	if len(found) == 0 {
		fmt.Fprintln(c.stdout, "No students found")
		return nil
	}
	w := tabwriter.NewWriter(c.stdout, 0, 4, 2, ' ', 0)
	for _, s := range found {
		fmt.Fprintf(w, "%s\t%s\t%s\n", s.RegNo, s.Name, s.Section)
	}
	return w.Flush()
}

func (c *ctl) splits(context.Context, []string) error {
	if len(c.app.Splits) == 0 {
		fmt.Fprintln(c.stdout, "No split bills")
		return nil
	}
	w := tabwriter.NewWriter(c.stdout, 0, 4, 2, ' ', 0)
	for _, b := range c.app.Splits {
		fmt.Fprintf(w, "%s\t%s\ttotal %s\tper person %s\n", b.Date.Format("2006-01-02"), b.Name, core.FormatAmount(b.TotalAmount), core.FormatAmount(b.AmountPerPerson))
		for _, p := range b.Participants {
			status := "pending"
			if p.Paid {
				status = "paid"
			}
			fmt.Fprintf(w, "  %s\t%s\t%s\n", p.Name, p.RegNo, status)
		}
	}
	return w.Flush()
}

// split resolves each --with registration number against the directory so
// the bill carries the participant's current name.
func (c *ctl) split(ctx context.Context, args []string) error {
	var (
		name   string
		amount float64
		with   string
	)
	fs := c.flags("split")
	fs.StringVar(&name, "name", "", "bill name")
	fs.Float64Var(&amount, "amount", 0, "total amount")
	fs.StringVar(&with, "with", "", "comma-separated registration numbers to split with")
	if err := fs.Parse(true, args); err != nil {
		return err
	}

	form := &client.SplitForm{Name: name, Amount: amount}
	for _, regNo := range strings.Split(with, ",") {
		regNo = strings.TrimSpace(regNo)
		if regNo == "" {
			continue
		}
		st, err := c.app.Lookup(ctx, regNo)
		if err != nil {
			return fmt.Errorf("participant %s: %w", regNo, err)
		}
		form.AddParticipant(c.app.Student.RegNo, st)
	}

	bill, err := c.app.CreateSplit(ctx, form)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "Split %q created: %s each across %d people\n", bill.Name, core.FormatAmount(bill.AmountPerPerson), len(bill.Participants))
	return nil
}

func (c *ctl) contact(ctx context.Context, args []string) error {
	// prefill name and email when a session exists
	if _, err := c.app.Restore(ctx); err != nil {
		return err
	}
	var (
		m      core.ContactMessage
		mailto bool
	)
	fs := c.flags("contact")
	fs.StringVar(&m.Name, "name", c.app.Student.Name, "your name")
	fs.StringVar(&m.Email, "email", c.app.Student.Email, "your email")
	fs.StringVar(&m.Message, "message", "", "message text")
	fs.BoolVar(&mailto, "mailto", false, "also print a mailto link for your mail client")
	if err := fs.Parse(true, args); err != nil {
		return err
	}

	ack, err := c.app.Contact(ctx, m)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.stdout, ack)
	if mailto {
		fmt.Fprintln(c.stdout, client.MailtoLink(c.recipient, m))
	}
	return nil
}

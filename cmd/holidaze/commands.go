package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"holidaze/internal/api"
	"holidaze/internal/models"
	"holidaze/internal/service"
	"holidaze/internal/validation"
)

func usage(w io.Writer) {
	fmt.Fprint(w, `usage: holidaze <command> [flags]

account:
  login --email E [--password P]      password falls back to HOLIDAZE_PASSWORD
  register --name N --email E [--password P] [--avatar URL] [--venue-manager]
  logout
  whoami
  profile [--bio B] [--avatar URL] [--avatar-alt A] [--banner URL] [--banner-alt A] [--venue-manager=true|false]

venues:
  venues [--page N] [--limit N] [--sort newest|name-asc|...] [--q TEXT]
  venue ID
  blocked-dates ID
  quote ID --from YYYY-MM-DD --to YYYY-MM-DD [--guests N]
  book ID --from YYYY-MM-DD --to YYYY-MM-DD [--guests N] [--yes]

bookings:
  bookings
  cancel BOOKING_ID

venue managers:
  manager venues
  manager create --file venue.json
  manager update ID --file venue.json
  manager delete ID
  manager export

server:
  serve
`)
}

func (a *app) dispatch(ctx context.Context, command string, args []string) error {
	switch command {
	case "login":
		return a.cmdLogin(ctx, args)
	case "register":
		return a.cmdRegister(ctx, args)
	case "logout":
		return a.cmdLogout(ctx)
	case "whoami":
		return a.cmdWhoami()
	case "profile":
		return a.cmdProfile(ctx, args)
	case "venues":
		return a.cmdVenues(ctx, args)
	case "venue":
		return a.cmdVenue(ctx, args)
	case "blocked-dates":
		return a.cmdBlockedDates(ctx, args)
	case "quote":
		return a.cmdQuote(ctx, args)
	case "book":
		return a.cmdBook(ctx, args)
	case "bookings":
		return a.cmdBookings(ctx)
	case "cancel":
		return a.cmdCancel(ctx, args)
	case "manager":
		return a.cmdManager(ctx, args)
	case "serve":
		return a.serve(ctx)
	default:
		usage(os.Stderr)
		return fmt.Errorf("unknown command %q", command)
	}
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	return fs
}

// positional takes the leading ID argument so flags may follow it.
func positional(args []string, what string) (string, []string, error) {
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		return "", nil, fmt.Errorf("%s is required", what)
	}
	return args[0], args[1:], nil
}

// printFieldErrors renders validation failures one per line.
func (a *app) printFieldErrors(err error) error {
	fe, ok := validation.AsFieldErrors(err)
	if !ok {
		return err
	}
	for field, msg := range fe {
		fmt.Fprintf(os.Stderr, "  %s: %s\n", field, msg)
	}
	return errors.New("please correct the errors above")
}

func (a *app) cmdLogin(ctx context.Context, args []string) error {
	fs := newFlagSet("login")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *password == "" {
		*password = os.Getenv("HOLIDAZE_PASSWORD")
	}

	p, err := a.auth.Login(ctx, validation.LoginForm{Email: *email, Password: *password})
	if err != nil {
		return a.printFieldErrors(err)
	}
	fmt.Fprintf(a.out, "Logged in as %s\n", p.Name)
	if p.VenueManager {
		fmt.Fprintf(a.out, "Venue manager dashboard: "+models.ManagerDashboardPathFormat+"\n", p.Name)
	}
	return nil
}

func (a *app) cmdRegister(ctx context.Context, args []string) error {
	fs := newFlagSet("register")
	name := fs.String("name", "", "profile name")
	email := fs.String("email", "", "stud.noroff.no email")
	password := fs.String("password", "", "password, at least 8 characters")
	avatar := fs.String("avatar", "", "avatar image URL")
	venueManager := fs.Bool("venue-manager", false, "register as venue manager")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *password == "" {
		*password = os.Getenv("HOLIDAZE_PASSWORD")
	}

	p, err := a.auth.Register(ctx, validation.RegisterForm{
		Name:         *name,
		Email:        *email,
		Password:     *password,
		Avatar:       *avatar,
		VenueManager: *venueManager,
	})
	if err != nil {
		return a.printFieldErrors(err)
	}
	fmt.Fprintf(a.out, "Registered %s. You can now log in.\n", p.Name)
	return nil
}

func (a *app) cmdLogout(ctx context.Context) error {
	if err := a.auth.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

func (a *app) cmdWhoami() error {
	snap := a.session.Snapshot()
	if !snap.IsLoggedIn || snap.User == nil {
		fmt.Fprintln(a.out, "Not logged in")
		return nil
	}
	u := snap.User
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Name\t%s\n", u.Name)
	fmt.Fprintf(tw, "Email\t%s\n", u.Email)
	fmt.Fprintf(tw, "Venue manager\t%t\n", snap.IsVenueManager)
	if u.Bio != "" {
		fmt.Fprintf(tw, "Bio\t%s\n", u.Bio)
	}
	if u.Avatar != nil {
		fmt.Fprintf(tw, "Avatar\t%s\n", u.Avatar.URL)
	}
	if u.Banner != nil {
		fmt.Fprintf(tw, "Banner\t%s\n", u.Banner.URL)
	}
	return tw.Flush()
}

func (a *app) cmdProfile(ctx context.Context, args []string) error {
	form := a.profile.Form()

	fs := newFlagSet("profile")
	fs.StringVar(&form.Bio, "bio", form.Bio, "profile bio")
	fs.StringVar(&form.Avatar.URL, "avatar", form.Avatar.URL, "avatar URL")
	fs.StringVar(&form.Avatar.Alt, "avatar-alt", form.Avatar.Alt, "avatar alt text")
	fs.StringVar(&form.Banner.URL, "banner", form.Banner.URL, "banner URL")
	fs.StringVar(&form.Banner.Alt, "banner-alt", form.Banner.Alt, "banner alt text")
	fs.BoolVar(&form.VenueManager, "venue-manager", form.VenueManager, "venue manager account")
	if err := fs.Parse(args); err != nil {
		return err
	}

	p, err := a.profile.Update(ctx, form)
	if err != nil {
		return a.printFieldErrors(err)
	}
	if p == nil {
		fmt.Fprintln(a.out, "Nothing to update")
		return nil
	}
	fmt.Fprintln(a.out, "Profile updated")
	return a.cmdWhoami()
}

func (a *app) cmdVenues(ctx context.Context, args []string) error {
	fs := newFlagSet("venues")
	page := fs.Int("page", 1, "page number")
	limit := fs.Int("limit", models.DefaultPageLimit, "venues per page")
	sortBy := fs.String("sort", models.SortNewest, "sort option")
	q := fs.String("q", "", "search text")
	if err := fs.Parse(args); err != nil {
		return err
	}

	result, err := a.venues.List(ctx, api.VenueQuery{Page: *page, Limit: *limit, Sort: *sortBy, Search: *q})
	if err != nil {
		return err
	}
	if len(result.Venues) == 0 {
		fmt.Fprintln(a.out, "No venues found")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPRICE\tGUESTS\tRATING\tCITY")
	for _, v := range result.Venues {
		fmt.Fprintf(tw, "%s\t%s\t%.0f\t%d\t%.1f\t%s\n", v.ID, v.Name, v.Price, v.MaxGuests, v.Rating, v.Location.City)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Page %d of %d (%d venues)\n", result.Meta.CurrentPage, result.Meta.PageCount, result.Meta.TotalCount)
	return nil
}

func (a *app) cmdVenue(ctx context.Context, args []string) error {
	id, _, err := positional(args, "venue id")
	if err != nil {
		return err
	}
	v, err := a.venues.Get(ctx, id)
	if err != nil {
		return a.printFieldErrors(err)
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Name\t%s\n", v.Name)
	fmt.Fprintf(tw, "Price\t%.0f per night\n", v.Price)
	fmt.Fprintf(tw, "Max guests\t%d\n", v.MaxGuests)
	fmt.Fprintf(tw, "Rating\t%.1f\n", v.Rating)
	fmt.Fprintf(tw, "Amenities\t%s\n", amenities(v.Meta))
	if loc := formatLocation(v.Location); loc != "" {
		fmt.Fprintf(tw, "Location\t%s\n", loc)
	}
	if v.Owner != nil {
		fmt.Fprintf(tw, "Host\t%s\n", v.Owner.Name)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if v.Description != "" {
		fmt.Fprintf(a.out, "\n%s\n", v.Description)
	}
	if user := a.session.User(); user != nil && v.OwnedBy(user.Name) {
		fmt.Fprintf(a.out, "\nThis is your venue. Manage it at "+models.ManagerDashboardPathFormat+"\n", user.Name)
	}
	return nil
}

func amenities(m models.VenueMeta) string {
	var out []string
	if m.Wifi {
		out = append(out, "wifi")
	}
	if m.Parking {
		out = append(out, "parking")
	}
	if m.Breakfast {
		out = append(out, "breakfast")
	}
	if m.Pets {
		out = append(out, "pets")
	}
	if len(out) == 0 {
		return "none"
	}
	return strings.Join(out, ", ")
}

func formatLocation(l models.Location) string {
	var parts []string
	for _, p := range []string{l.Address, l.City, l.Zip, l.Country} {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

func (a *app) cmdBlockedDates(ctx context.Context, args []string) error {
	id, _, err := positional(args, "venue id")
	if err != nil {
		return err
	}
	v, err := a.venues.Get(ctx, id)
	if err != nil {
		return a.printFieldErrors(err)
	}
	set := a.venues.BlockedDates(ctx, v)
	if set.Len() == 0 {
		fmt.Fprintln(a.out, "No blocked dates")
		return nil
	}
	for _, d := range set.Strings() {
		fmt.Fprintln(a.out, d)
	}
	return nil
}

type rangeFlags struct {
	from   *string
	to     *string
	guests *int
}

func addRangeFlags(fs *flag.FlagSet) rangeFlags {
	return rangeFlags{
		from:   fs.String("from", "", "check-in date YYYY-MM-DD"),
		to:     fs.String("to", "", "check-out date YYYY-MM-DD"),
		guests: fs.Int("guests", 1, "number of guests"),
	}
}

func (r rangeFlags) form(loc *time.Location) (validation.BookingForm, error) {
	start, err := parseDate(*r.from, loc)
	if err != nil {
		return validation.BookingForm{}, fmt.Errorf("invalid --from: %w", err)
	}
	end, err := parseDate(*r.to, loc)
	if err != nil {
		return validation.BookingForm{}, fmt.Errorf("invalid --to: %w", err)
	}
	return validation.BookingForm{StartDate: start, EndDate: end, Guests: *r.guests}, nil
}

func parseDate(raw string, loc *time.Location) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return time.Time{}, nil
	}
	return time.ParseInLocation(models.DateLayout, strings.TrimSpace(raw), loc)
}

func (a *app) cmdQuote(ctx context.Context, args []string) error {
	id, rest, err := positional(args, "venue id")
	if err != nil {
		return err
	}
	fs := newFlagSet("quote")
	rf := addRangeFlags(fs)
	if err := fs.Parse(rest); err != nil {
		return err
	}
	form, err := rf.form(a.cfg.Booking.Location())
	if err != nil {
		return err
	}

	v, err := a.venues.Get(ctx, id)
	if err != nil {
		return a.printFieldErrors(err)
	}
	q := a.venues.Quote(ctx, v, form)

	label := ""
	if q.Provisional {
		label = " (provisional, no dates selected)"
	}
	fmt.Fprintf(a.out, "%d night(s) at %s: %.0f%s\n", q.Nights, v.Name, q.TotalPrice, label)
	if len(q.Errors) > 0 {
		return a.printFieldErrors(q.Errors)
	}
	return nil
}

func (a *app) cmdBook(ctx context.Context, args []string) error {
	id, rest, err := positional(args, "venue id")
	if err != nil {
		return err
	}
	fs := newFlagSet("book")
	rf := addRangeFlags(fs)
	yes := fs.Bool("yes", false, "confirm the booking without asking")
	if err := fs.Parse(rest); err != nil {
		return err
	}
	form, err := rf.form(a.cfg.Booking.Location())
	if err != nil {
		return err
	}

	_, flow, notice, err := a.venues.NewFlow(ctx, id)
	if errors.Is(err, service.ErrVenueOwner) && notice != nil {
		fmt.Fprintf(a.out, "%s\n%s\nManage it at %s\n", notice.Title, notice.Message, notice.Link)
		return err
	}
	if err != nil {
		return a.printFieldErrors(err)
	}

	flow.SetStartDate(form.StartDate)
	flow.SetEndDate(form.EndDate)
	flow.SetGuests(form.Guests)

	summary, err := flow.Open()
	if err != nil {
		return a.printFieldErrors(err)
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Venue\t%s\n", summary.VenueName)
	fmt.Fprintf(tw, "Check-in\t%s\n", summary.StartDate.Format(models.DateLayout))
	fmt.Fprintf(tw, "Check-out\t%s\n", summary.EndDate.Format(models.DateLayout))
	fmt.Fprintf(tw, "Guests\t%d\n", summary.Guests)
	fmt.Fprintf(tw, "Nights\t%d x %.0f\n", summary.Nights, summary.NightlyPrice)
	fmt.Fprintf(tw, "Total\t%.0f\n", summary.TotalPrice)
	if err := tw.Flush(); err != nil {
		return err
	}

	if !*yes {
		flow.Cancel()
		fmt.Fprintln(a.out, "Not booked. Run again with --yes to confirm.")
		return nil
	}

	booking, err := flow.Confirm(ctx)
	if err != nil {
		return errors.New(flow.Message())
	}
	fmt.Fprintf(a.out, "%s Booking ID: %s\n", flow.Message(), booking.ID)
	return nil
}

func (a *app) cmdBookings(ctx context.Context) error {
	bookings, err := a.bookings.MyBookings(ctx)
	if err != nil {
		return err
	}
	if len(bookings) == 0 {
		fmt.Fprintln(a.out, "No bookings yet")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tVENUE\tCHECK-IN\tCHECK-OUT\tGUESTS\tTOTAL")
	for _, b := range bookings {
		name, total := "", 0.0
		if b.Venue != nil {
			name = b.Venue.Name
			total = service.TotalPrice(b.Venue.Price, b.DateFrom, b.DateTo)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%.0f\n",
			b.ID, name, b.DateFrom.Format(models.DateLayout), b.DateTo.Format(models.DateLayout), b.Guests, total)
	}
	return tw.Flush()
}

func (a *app) cmdCancel(ctx context.Context, args []string) error {
	id, _, err := positional(args, "booking id")
	if err != nil {
		return err
	}
	bookings, err := a.bookings.MyBookings(ctx)
	if err != nil {
		return err
	}
	remaining, err := a.bookings.Cancel(ctx, bookings, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Booking %s canceled. %d booking(s) left.\n", id, len(remaining))
	return nil
}

func (a *app) cmdManager(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("manager needs a subcommand: venues, create, update, delete, export")
	}
	sub, rest := args[0], args[1:]

	switch sub {
	case "venues":
		return a.cmdManagerVenues(ctx)
	case "create":
		fs := newFlagSet("manager create")
		file := fs.String("file", "", "venue JSON file")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		in, err := readVenueInput(*file)
		if err != nil {
			return err
		}
		v, err := a.manager.Create(ctx, in)
		if err != nil {
			return a.printFieldErrors(err)
		}
		fmt.Fprintf(a.out, "Venue created: %s (%s)\n", v.Name, v.ID)
		return nil
	case "update":
		id, rest, err := positional(rest, "venue id")
		if err != nil {
			return err
		}
		fs := newFlagSet("manager update")
		file := fs.String("file", "", "venue JSON file")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		in, err := readVenueInput(*file)
		if err != nil {
			return err
		}
		v, err := a.manager.Update(ctx, id, in)
		if err != nil {
			return a.printFieldErrors(err)
		}
		fmt.Fprintf(a.out, "Venue updated: %s\n", v.Name)
		return nil
	case "delete":
		id, _, err := positional(rest, "venue id")
		if err != nil {
			return err
		}
		if err := a.manager.Delete(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Venue %s deleted\n", id)
		return nil
	case "export":
		venues, err := a.manager.Venues(ctx)
		if err != nil {
			return err
		}
		user := a.session.User()
		path, err := a.exporter.ManagerBookings(user.Name, venues)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Bookings exported to %s\n", path)
		return nil
	default:
		return fmt.Errorf("unknown manager subcommand %q", sub)
	}
}

func (a *app) cmdManagerVenues(ctx context.Context) error {
	venues, err := a.manager.Venues(ctx)
	if err != nil {
		return err
	}
	if len(venues) == 0 {
		fmt.Fprintln(a.out, "You have no venues yet")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPRICE\tGUESTS\tBOOKINGS")
	for _, v := range venues {
		fmt.Fprintf(tw, "%s\t%s\t%.0f\t%d\t%d\n", v.ID, v.Name, v.Price, v.MaxGuests, len(v.Bookings))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, v := range venues {
		if len(v.Bookings) == 0 {
			continue
		}
		fmt.Fprintf(a.out, "\n%s\n", v.Name)
		for _, b := range v.Bookings {
			customer := ""
			if b.Customer != nil {
				customer = b.Customer.Name
			}
			fmt.Fprintf(a.out, "  %s to %s  %d guest(s)  %s\n",
				b.DateFrom.Format(models.DateLayout), b.DateTo.Format(models.DateLayout), b.Guests, customer)
		}
	}
	return nil
}

func readVenueInput(path string) (models.VenueInput, error) {
	var in models.VenueInput
	if path == "" {
		return in, errors.New("--file is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return in, fmt.Errorf("read venue file: %w", err)
	}
	if err := json.Unmarshal(data, &in); err != nil {
		return in, fmt.Errorf("parse venue file: %w", err)
	}
	return in, nil
}

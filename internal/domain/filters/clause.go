package filters

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/lib/pq"
	"github.com/zatekoja/therapistdirectory/internal/domain/entities"
)

// Clause is a single filter condition. It renders to SQL for the relational
// store and can evaluate itself against a record for in-process stores.
type Clause interface {
	Column() string
	Expression() exp.Expression
	Matches(t *entities.Therapist) bool
	String() string
}

type textField struct {
	column string
	get    func(*entities.Therapist) string
}

type listField struct {
	column string
	get    func(*entities.Therapist) []string
}

var (
	fieldName        = textField{"name", func(t *entities.Therapist) string { return t.Name }}
	fieldZip         = textField{"zip", func(t *entities.Therapist) string { return t.Address.Zip }}
	fieldCity        = textField{"city", func(t *entities.Therapist) string { return t.Address.City }}
	fieldState       = textField{"state", func(t *entities.Therapist) string { return t.Address.State }}
	fieldInsurance   = textField{"insurance", func(t *entities.Therapist) string { return t.Insurance }}
	fieldCredentials = textField{"credentials", func(t *entities.Therapist) string { return t.Credentials }}
	fieldSpecialty   = textField{"specialty_description", func(t *entities.Therapist) string { return t.SpecialtyDescription }}
	fieldTreatment   = textField{"treatment_description", func(t *entities.Therapist) string { return t.TreatmentDescription }}
	fieldFee         = textField{"fee_individual", func(t *entities.Therapist) string { return t.FeeIndividual }}

	fieldIssues         = listField{"issues", func(t *entities.Therapist) []string { return t.Issues }}
	fieldLanguages      = listField{"languages", func(t *entities.Therapist) []string { return t.Languages }}
	fieldAges           = listField{"ages", func(t *entities.Therapist) []string { return t.Ages }}
	fieldCommunities    = listField{"communities", func(t *entities.Therapist) []string { return t.Communities }}
	fieldTreatmentStyle = listField{"treatment_style", func(t *entities.Therapist) []string { return t.TreatmentStyle }}
)

type equalsClause struct {
	field textField
	value string
}

func (c equalsClause) Column() string { return c.field.column }

func (c equalsClause) Expression() exp.Expression {
	return goqu.I(c.field.column).Eq(c.value)
}

func (c equalsClause) Matches(t *entities.Therapist) bool {
	return c.field.get(t) == c.value
}

func (c equalsClause) String() string { return fmt.Sprintf("%s = %q", c.field.column, c.value) }

// foldEqualsClause is a case-insensitive exact match ignoring surrounding
// whitespace in the stored value
type foldEqualsClause struct {
	field textField
	value string
}

func (c foldEqualsClause) Column() string { return c.field.column }

func (c foldEqualsClause) Expression() exp.Expression {
	return goqu.Func("LOWER", goqu.Func("TRIM", goqu.I(c.field.column))).Eq(strings.ToLower(c.value))
}

func (c foldEqualsClause) Matches(t *entities.Therapist) bool {
	return strings.ToLower(strings.TrimSpace(c.field.get(t))) == strings.ToLower(c.value)
}

func (c foldEqualsClause) String() string {
	return fmt.Sprintf("lower(trim(%s)) = %q", c.field.column, strings.ToLower(c.value))
}

// containsClause is a case-insensitive substring match
type containsClause struct {
	field textField
	value string
}

func (c containsClause) Column() string { return c.field.column }

func (c containsClause) Expression() exp.Expression {
	return goqu.I(c.field.column).ILike("%" + escapeLike(c.value) + "%")
}

func (c containsClause) Matches(t *entities.Therapist) bool {
	return strings.Contains(strings.ToLower(c.field.get(t)), strings.ToLower(c.value))
}

func (c containsClause) String() string { return fmt.Sprintf("%s ilike %%%s%%", c.field.column, c.value) }

// prefixClause is a case-insensitive prefix match
type prefixClause struct {
	field textField
	value string
}

func (c prefixClause) Column() string { return c.field.column }

func (c prefixClause) Expression() exp.Expression {
	return goqu.I(c.field.column).ILike(escapeLike(c.value) + "%")
}

func (c prefixClause) Matches(t *entities.Therapist) bool {
	return strings.HasPrefix(strings.ToLower(c.field.get(t)), strings.ToLower(c.value))
}

func (c prefixClause) String() string { return fmt.Sprintf("%s ilike %s%%", c.field.column, c.value) }

// membershipClause matches when the list attribute holds any of the values
type membershipClause struct {
	field  listField
	values []string
}

func (c membershipClause) Column() string { return c.field.column }

func (c membershipClause) Expression() exp.Expression {
	return goqu.L("? && ?", goqu.I(c.field.column), pq.Array(c.values))
}

func (c membershipClause) Matches(t *entities.Therapist) bool {
	for _, have := range c.field.get(t) {
		for _, want := range c.values {
			if have == want {
				return true
			}
		}
	}
	return false
}

func (c membershipClause) String() string {
	return fmt.Sprintf("%s && {%s}", c.field.column, strings.Join(c.values, ","))
}

type boolClause struct {
	column string
	get    func(*entities.Therapist) bool
	value  bool
}

func (c boolClause) Column() string { return c.column }

func (c boolClause) Expression() exp.Expression {
	return goqu.I(c.column).Eq(c.value)
}

func (c boolClause) Matches(t *entities.Therapist) bool { return c.get(t) == c.value }

func (c boolClause) String() string { return fmt.Sprintf("%s = %t", c.column, c.value) }

// feeRangeClause tests the first number found in a free-form fee string
type feeRangeClause struct {
	field  textField
	bucket PriceBucket
}

// feeNumberPattern must not contain '?', which goqu reads as a placeholder.
const feeNumberPattern = `[0-9]+[.]{0,1}[0-9]*`

var feeNumberRe = regexp.MustCompile(feeNumberPattern)

func (c feeRangeClause) Column() string { return c.field.column }

func (c feeRangeClause) Expression() exp.Expression {
	fee := goqu.L(fmt.Sprintf("substring(replace(?, ',', '') from '%s')::numeric", feeNumberPattern), goqu.I(c.field.column))

	var bounds []exp.Expression
	if c.bucket.Min != nil {
		if c.bucket.MinInclusive {
			bounds = append(bounds, fee.Gte(*c.bucket.Min))
		} else {
			bounds = append(bounds, fee.Gt(*c.bucket.Min))
		}
	}
	if c.bucket.Max != nil {
		if c.bucket.MaxInclusive {
			bounds = append(bounds, fee.Lte(*c.bucket.Max))
		} else {
			bounds = append(bounds, fee.Lt(*c.bucket.Max))
		}
	}
	return goqu.And(bounds...)
}

func (c feeRangeClause) Matches(t *entities.Therapist) bool {
	fee, ok := ParseFee(c.field.get(t))
	if !ok {
		return false
	}
	return c.bucket.Contains(fee)
}

func (c feeRangeClause) String() string { return fmt.Sprintf("%s in %s", c.field.column, c.bucket.Label) }

// ParseFee extracts the first number from a free-form fee such as "$120 / session".
func ParseFee(raw string) (float64, bool) {
	match := feeNumberRe.FindString(strings.ReplaceAll(raw, ",", ""))
	if match == "" {
		return 0, false
	}
	fee, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, false
	}
	return fee, true
}

func escapeLike(value string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(value)
}

// Published restricts results to visible profiles.
func Published() Clause {
	return boolClause{column: "published", get: func(t *entities.Therapist) bool { return t.Published }, value: true}
}

// NamePrefix matches therapist names starting with prefix, ignoring case.
func NamePrefix(prefix string) Clause {
	return prefixClause{field: fieldName, value: prefix}
}

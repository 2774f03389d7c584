package tagdb

// builtinFilterModule mirrors the import path Django's default filters
// live at, the same way builtinModule does for the default tags.
const builtinFilterModule = "django.template.defaultfilters"

func filterKey(name string) SymbolKey {
	return SymbolKey{Module: builtinFilterModule, Name: name, IsTag: false}
}

// arity constructors keep the table below readable.
func noArg() FilterArity       { return FilterArity{} }
func requiredArg() FilterArity { return FilterArity{ExpectsArg: true} }
func optionalArg() FilterArity { return FilterArity{ExpectsArg: true, ArgOptional: true} }

// builtinFilterArities seeds the database with the default Django
// filters and their argument expectations. Like the built-in tag table,
// these are fallbacks: extraction from a workspace's own copy of
// defaultfilters.py replaces them.
var builtinFilterArities = map[SymbolKey]FilterArity{
	filterKey("add"):                requiredArg(),
	filterKey("addslashes"):         noArg(),
	filterKey("capfirst"):           noArg(),
	filterKey("center"):             requiredArg(),
	filterKey("cut"):                requiredArg(),
	filterKey("date"):               optionalArg(),
	filterKey("default"):            requiredArg(),
	filterKey("default_if_none"):    requiredArg(),
	filterKey("dictsort"):           requiredArg(),
	filterKey("dictsortreversed"):   requiredArg(),
	filterKey("divisibleby"):        requiredArg(),
	filterKey("escape"):             noArg(),
	filterKey("escapejs"):           noArg(),
	filterKey("filesizeformat"):     noArg(),
	filterKey("first"):              noArg(),
	filterKey("floatformat"):        optionalArg(),
	filterKey("force_escape"):       noArg(),
	filterKey("get_digit"):          requiredArg(),
	filterKey("iriencode"):          noArg(),
	filterKey("join"):               requiredArg(),
	filterKey("json_script"):        optionalArg(),
	filterKey("last"):               noArg(),
	filterKey("length"):             noArg(),
	filterKey("linebreaks"):         noArg(),
	filterKey("linebreaksbr"):       noArg(),
	filterKey("linenumbers"):        noArg(),
	filterKey("ljust"):              requiredArg(),
	filterKey("lower"):              noArg(),
	filterKey("make_list"):          noArg(),
	filterKey("phone2numeric"):      noArg(),
	filterKey("pluralize"):          optionalArg(),
	filterKey("pprint"):             noArg(),
	filterKey("random"):             noArg(),
	filterKey("rjust"):              requiredArg(),
	filterKey("safe"):               noArg(),
	filterKey("safeseq"):            noArg(),
	filterKey("slice"):              requiredArg(),
	filterKey("slugify"):            noArg(),
	filterKey("stringformat"):       requiredArg(),
	filterKey("striptags"):          noArg(),
	filterKey("time"):               optionalArg(),
	filterKey("timesince"):          optionalArg(),
	filterKey("timeuntil"):          optionalArg(),
	filterKey("title"):              noArg(),
	filterKey("truncatechars"):      requiredArg(),
	filterKey("truncatechars_html"): requiredArg(),
	filterKey("truncatewords"):      requiredArg(),
	filterKey("truncatewords_html"): requiredArg(),
	filterKey("unordered_list"):     noArg(),
	filterKey("upper"):              noArg(),
	filterKey("urlencode"):          optionalArg(),
	filterKey("urlize"):             noArg(),
	filterKey("urlizetrunc"):        requiredArg(),
	filterKey("wordcount"):          noArg(),
	filterKey("wordwrap"):           requiredArg(),
	filterKey("yesno"):              optionalArg(),
}

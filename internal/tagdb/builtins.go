package tagdb

// builtinModule is the synthetic module path used for Django's own
// templatetags/*.py: there is no real source file for these, but
// every SymbolKey needs a module component, and "django.template.defaulttags"
// mirrors the real import path Django's built-in tags live at.
const builtinModule = "django.template.defaulttags"

// IsBuiltinModule reports whether module is one of Django's own,
// always-visible tag/filter modules (no {% load %} required).
func IsBuiltinModule(module string) bool {
	return module == builtinModule || module == builtinFilterModule
}

func key(name string) SymbolKey {
	return SymbolKey{Module: builtinModule, Name: name, IsTag: true}
}

// builtinBlocks seeds the database with the core Django tags' block
// structure. None of these carry a TagRule;
// extraction from the real defaulttags.py source (when present in a
// workspace) replaces the Rule field; the block structure recorded
// here is the fallback used when no such source is loaded.
var builtinBlocks = map[SymbolKey]BlockSpec{
	key("if"):             {EndTag: "endif", Intermediates: []string{"elif", "else"}},
	key("for"):            {EndTag: "endfor", Intermediates: []string{"empty"}},
	key("block"):          {EndTag: "endblock"},
	key("with"):           {EndTag: "endwith"},
	key("extends"):        {},
	key("load"):           {},
	key("include"):        {},
	key("autoescape"):     {EndTag: "endautoescape"},
	key("spaceless"):      {EndTag: "endspaceless"},
	key("verbatim"):       {EndTag: "endverbatim", Opaque: true},
	key("comment"):        {EndTag: "endcomment", Opaque: true},
	key("cycle"):          {},
	key("filter"):         {EndTag: "endfilter"},
	key("url"):            {},
	key("static"):         {},
	key("now"):            {},
	key("csrf_token"):     {},
	key("firstof"):        {},
	key("lorem"):          {},
	key("regroup"):        {},
	key("widthratio"):     {},
	key("debug"):          {},
	key("templatetag"):    {},
	key("cache"):          {EndTag: "endcache"},
	key("localize"):       {EndTag: "endlocalize"},
	key("blocktranslate"): {EndTag: "endblocktranslate"},
	key("blocktrans"):     {EndTag: "endblocktrans"},
	key("trans"):          {},
	key("localtime"):      {EndTag: "endlocaltime"},
	key("timezone"):       {EndTag: "endtimezone"},
}

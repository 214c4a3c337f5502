// internal/browser/script.go
package browser

// jsHelpers defines the in-page helper functions shared by every element
// query. __path builds a stable CSS path so elements can be re-identified
// across calls; __snap captures the geometry and visibility snapshot the
// resolver consumes.
const jsHelpers = `
const __vis = (el) => {
	const r = el.getBoundingClientRect();
	if (r.width <= 0 || r.height <= 0) return false;
	const st = window.getComputedStyle(el);
	return st.visibility !== 'hidden' && st.display !== 'none' && st.opacity !== '0';
};
const __path = (el) => {
	if (el.id) return '#' + CSS.escape(el.id);
	const parts = [];
	while (el && el.nodeType === Node.ELEMENT_NODE && el !== document.documentElement) {
		let idx = 1, sib = el;
		while ((sib = sib.previousElementSibling)) idx++;
		parts.unshift(el.tagName.toLowerCase() + ':nth-child(' + idx + ')');
		el = el.parentElement;
		if (el && el.id) { parts.unshift('#' + CSS.escape(el.id)); break; }
	}
	return parts.join(' > ');
};
const __snap = (el) => {
	const r = el.getBoundingClientRect();
	return {
		locator: __path(el),
		box: {x: r.x, y: r.y, width: r.width, height: r.height},
		visible: __vis(el),
		tag: el.tagName.toLowerCase(),
		text: (el.textContent || '').trim().slice(0, 200)
	};
};
`

// jsQuery returns snapshots for every match of a structural selector. An
// invalid selector yields an empty result so the resolver can fall through
// to its next strategy.
const jsQuery = `(() => {` + jsHelpers + `
	const out = [];
	try {
		document.querySelectorAll(%q).forEach(el => out.push(__snap(el)));
	} catch (e) {}
	return out;
})()`

// jsFindByText returns the innermost elements whose text contains the given
// string. Filtering to innermost matches keeps body/html out of the result
// for every query.
const jsFindByText = `(() => {` + jsHelpers + `
	const q = %q;
	const out = [];
	if (!q) return out;
	for (const el of document.body.querySelectorAll('*')) {
		if (!(el.textContent || '').includes(q)) continue;
		let inner = true;
		for (const c of el.children) {
			if ((c.textContent || '').includes(q)) { inner = false; break; }
		}
		if (inner) out.push(__snap(el));
	}
	return out;
})()`

// jsFindByAttr returns snapshots for elements matched by an attribute
// predicate, exact or containment.
const jsFindByAttr = `(() => {` + jsHelpers + `
	const out = [];
	try {
		const sel = '[' + %q + (%t ? '*=' : '=') + JSON.stringify(%q) + ']';
		document.querySelectorAll(sel).forEach(el => out.push(__snap(el)));
	} catch (e) {}
	return out;
})()`

// jsVisibleElements returns snapshots for every currently visible element.
const jsVisibleElements = `(() => {` + jsHelpers + `
	const out = [];
	for (const el of document.body.querySelectorAll('*')) {
		if (__vis(el)) out.push(__snap(el));
	}
	return out;
})()`

// jsIsAttached reports whether a previously captured locator still resolves.
const jsIsAttached = `(() => {
	try { return document.querySelector(%q) !== null; } catch (e) { return false; }
})()`

// jsScrollIntoView smooth-scrolls the element to the viewport center.
const jsScrollIntoView = `(() => {
	const el = document.querySelector(%q);
	if (!el) return false;
	el.scrollIntoView({behavior: 'smooth', block: 'center'});
	return true;
})()`

// jsClearInput empties an input's value and fires the input event so
// framework bindings observe the change.
const jsClearInput = `(() => {
	const el = document.querySelector(%q);
	if (!el) return false;
	el.value = '';
	el.dispatchEvent(new Event('input', {bubbles: true}));
	return true;
})()`

// jsViewport reports the window's inner dimensions.
const jsViewport = `({width: window.innerWidth, height: window.innerHeight})`

// jsScrollBy scrolls the window by a signed pixel delta.
const jsScrollBy = `window.scrollBy(%v, %v)`

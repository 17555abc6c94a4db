package browser

import "fmt"

// captureScript returns the JS hook injected in recording mode. It
// buffers click/input/submit/navigate events with a per-element input
// debounce and keeps the event targets alive in a registry so the Go
// side can resolve proper locators against the live handles.
//
// The hook disappears on full page loads; the poll loop re-injects it
// when RecorderInjected reports false.
func captureScript(debounceMs int) string {
	return fmt.Sprintf(`(() => {
		if (window.__analyzerRecorder) {
			return;
		}

		const recorder = {
			events: [],
			targets: {},
			seq: 0,
			drain() {
				return this.events.splice(0, this.events.length);
			},
			target(ref) {
				return this.targets[ref] || null;
			}
		};

		const DEBOUNCE_MS = %d;
		const debounceTimers = new WeakMap();

		const buildXPath = (element) => {
			if (element.id) {
				return '//*[@id="' + element.id + '"]';
			}

			let path = '';
			let current = element;
			while (current && current.nodeType === 1) {
				let ordinal = 0;
				let count = 0;
				const siblings = current.parentNode ? current.parentNode.children : [current];
				for (const sibling of siblings) {
					if (sibling.tagName === current.tagName) {
						count++;
						if (sibling === current) {
							ordinal = count;
						}
					}
				}
				const tag = current.tagName.toLowerCase();
				path = '/' + (count > 1 ? tag + '[' + ordinal + ']' : tag) + path;
				current = current.parentElement;
			}
			return path;
		};

		const collectAttributes = (element) => {
			const out = {};
			for (const attr of element.attributes) {
				out[attr.name] = attr.value;
			}
			return out;
		};

		const push = (kind, element, value) => {
			recorder.seq++;
			const ref = 'e' + recorder.seq;
			recorder.targets[ref] = element;
			recorder.events.push({
				key: kind + '-' + Date.now() + '-' + recorder.seq,
				ref: ref,
				kind: kind,
				locator: buildXPath(element),
				tag: element.tagName.toLowerCase(),
				text: (element.innerText || element.textContent || '').trim().slice(0, 100),
				value: value || '',
				url: window.location.href,
				attributes: collectAttributes(element)
			});
		};

		document.addEventListener('click', (e) => {
			if (e.target && e.target.nodeType === 1) {
				push('click', e.target, '');
			}
		}, true);

		document.addEventListener('input', (e) => {
			const el = e.target;
			if (!el || el.nodeType !== 1 || el.type === 'password') {
				return;
			}
			const pending = debounceTimers.get(el);
			if (pending) {
				clearTimeout(pending);
			}
			debounceTimers.set(el, setTimeout(() => {
				debounceTimers.delete(el);
				push('input', el, el.value);
			}, DEBOUNCE_MS));
		}, true);

		document.addEventListener('submit', (e) => {
			if (e.target && e.target.nodeType === 1) {
				push('submit', e.target, '');
			}
		}, true);

		window.addEventListener('popstate', () => {
			push('navigate', document.documentElement, window.location.href);
		});
		window.addEventListener('hashchange', () => {
			push('navigate', document.documentElement, window.location.href);
		});

		window.__analyzerRecorder = recorder;
	})()`, debounceMs)
}

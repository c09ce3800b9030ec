package headless

// stealthScript runs before any page script to hide automation markers
const stealthScript = `(() => {
  Object.defineProperty(navigator, 'webdriver', { get: () => undefined });
  Object.defineProperty(navigator, 'languages', { get: () => ['zh-CN', 'zh', 'en'] });
  Object.defineProperty(navigator, 'plugins', { get: () => [1, 2, 3] });
  window.chrome = { runtime: {} };
})();`

// scrollScript scrolls to a fraction of the document height; %f is the ratio
const scrollScript = `(() => {
  const h = Math.max(document.body ? document.body.scrollHeight : 0, document.documentElement.scrollHeight);
  const y = Math.round(%f * h);
  window.scrollTo({ top: y, behavior: 'instant' });
  return y;
})()`

// extractScript collects image URLs from the live DOM with the static rules
const extractScript = `(() => {
  const found = [];
  const seen = new Set();
  const abs = (u) => {
    if (!u || !u.trim()) return null;
    try {
      const r = new URL(u.trim(), location.href);
      return r.protocol === 'http:' || r.protocol === 'https:' ? r.href : null;
    } catch (e) {
      return null;
    }
  };
  const add = (u) => {
    if (u && !seen.has(u)) { seen.add(u); found.push(u); }
  };
  const score = (d) => {
    d = (d || '').toLowerCase();
    let m = d.match(/^(\d+)w$/);
    if (m) return parseInt(m[1], 10);
    m = d.match(/^(\d+(?:\.\d+)?)x$/);
    if (m) return Math.round(parseFloat(m[1]) * 100);
    return 0;
  };
  const parseSrcset = (s) => {
    const out = [];
    let rest = s || '';
    for (;;) {
      rest = rest.replace(/^[\s,]+/, '');
      if (!rest) return out;
      const m = rest.match(/^\S+/);
      let url = m[0];
      rest = rest.slice(url.length);
      if (/,+$/.test(url)) {
        out.push({ url: url.replace(/,+$/, ''), d: '' });
        continue;
      }
      const comma = rest.indexOf(',');
      const d = comma >= 0 ? rest.slice(0, comma) : rest;
      rest = comma >= 0 ? rest.slice(comma + 1) : '';
      out.push({ url, d: d.trim() });
    }
  };
  const pick = (srcset) => {
    let best = null, bestScore = -1;
    for (const c of parseSrcset(srcset)) {
      const u = abs(c.url);
      if (!u) continue;
      let s = 0;
      for (const d of c.d.split(/\s+/)) { s = score(d); if (s > 0) break; }
      if (s >= bestScore) { best = u; bestScore = s; }
    }
    return best;
  };
  const lazy = ['data-src', 'data-original', 'data-lazy', 'data-url', 'data-actualsrc'];
  const imageURL = (img) => {
    const srcset = img.getAttribute('srcset') || img.getAttribute('data-srcset');
    if (srcset) {
      const best = pick(srcset);
      if (best) return best;
    }
    for (const a of lazy) {
      const u = abs(img.getAttribute(a));
      if (u) return u;
    }
    return abs(img.getAttribute('src'));
  };

  document.querySelectorAll('img').forEach((img) => add(imageURL(img)));

  document.querySelectorAll('picture').forEach((pic) => {
    let best = null;
    pic.querySelectorAll('source').forEach((s) => {
      const u = pick(s.getAttribute('srcset'));
      if (u) best = u;
    });
    add(best);
    const img = pic.querySelector('img');
    if (img) add(abs(img.getAttribute('src')));
  });

  document.querySelectorAll('noscript').forEach((ns) => {
    const markup = ns.textContent || ns.innerHTML || '';
    if (!markup.trim()) return;
    const doc = new DOMParser().parseFromString(markup, 'text/html');
    doc.querySelectorAll('img').forEach((img) => add(imageURL(img)));
  });

  document.querySelectorAll('*').forEach((el) => {
    const bg = getComputedStyle(el).backgroundImage;
    if (!bg || bg === 'none') return;
    const re = /url\((['"]?)([^)"']+)\1\)/g;
    let m;
    while ((m = re.exec(bg)) !== null) add(abs(m[2]));
  });

  document.querySelectorAll('[data-src], [data-original]').forEach((el) => {
    if (el.tagName === 'IMG') return;
    add(abs(el.getAttribute('data-src')) || abs(el.getAttribute('data-original')));
  });

  return found;
})()`

package server

import "html/template"

// pageTemplate is the minimal page shell. All list markup comes from the
// /fragment endpoint; the inline script is plain interaction glue.
var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8" />
<title>daylist</title>
</head>
<body>
<h1>daylist</h1>
<form id="todoForm">
  <input id="taskInput" name="text" placeholder="Task" />
  <input id="dateInput" name="date" type="date" />
  <input id="timeStartInput" name="timeStart" type="time" />
  <input id="timeEndInput" name="timeEnd" type="time" />
  <select id="priorityInput" name="priority">
    <option value="low">low</option>
    <option value="medium" selected>medium</option>
    <option value="high">high</option>
  </select>
  <input id="attachmentInput" name="attachment" type="file" />
  <button type="submit">Add</button>
</form>
<select id="filter">
  <option value="all">all</option>
  <option value="today">today</option>
  <option value="upcoming">upcoming</option>
  <option value="overdue">overdue</option>
  <option value="completed">completed</option>
</select>
<input id="searchInput" placeholder="Search" />
<span id="totalCount"></span> <span id="doneCount"></span>
<ul id="todoList"></ul>
<script>
const form = document.getElementById("todoForm");
const list = document.getElementById("todoList");
const filter = document.getElementById("filter");
const searchInput = document.getElementById("searchInput");
const totalCount = document.getElementById("totalCount");
const doneCount = document.getElementById("doneCount");

async function refresh() {
  const params = new URLSearchParams({ mode: filter.value, q: searchInput.value });
  const res = await fetch("/fragment?" + params);
  const data = await res.json();
  list.innerHTML = data.fragment;
  totalCount.textContent = data.total + " total";
  doneCount.textContent = data.done + " done";
}

form.addEventListener("submit", async (e) => {
  e.preventDefault();
  const res = await fetch("/tasks", { method: "POST", body: new FormData(form) });
  if (!res.ok) {
    const body = await res.json();
    alert(body.error);
    return;
  }
  form.reset();
});

filter.addEventListener("change", refresh);
searchInput.addEventListener("input", refresh);

list.addEventListener("click", async (e) => {
  const li = e.target.closest("li");
  if (!li) return;
  const id = li.dataset.id;

  if (e.target.classList.contains("delete")) {
    await fetch("/tasks/" + id + "/delete", { method: "POST" });
  } else if (e.target.classList.contains("open-attachment")) {
    const res = await fetch("/tasks/" + id + "/open");
    const body = await res.json();
    if (!res.ok) {
      alert(body.error);
      return;
    }
    window.open(body.url, "_blank");
  } else if (e.target.classList.contains("edit")) {
    const fields = {};
    for (const [name, label] of [["text", "Edit task:"], ["date", "Edit date (YYYY-MM-DD):"],
        ["timeStart", "Edit start time (HH:MM):"], ["timeEnd", "Edit end time (HH:MM, optional):"],
        ["priority", "Edit priority (low, medium, high):"]]) {
      const value = prompt(label, li.dataset[name] || "");
      if (value === null) return;
      fields[name] = value;
    }
    const res = await fetch("/tasks/" + id + "/edit", {
      method: "POST",
      headers: { "Content-Type": "application/x-www-form-urlencoded" },
      body: new URLSearchParams(fields),
    });
    if (!res.ok) {
      const body = await res.json();
      alert(body.error);
    }
  }
});

list.addEventListener("change", async (e) => {
  if (!e.target.classList.contains("checkbox")) return;
  const li = e.target.closest("li");
  if (!li) return;
  await fetch("/tasks/" + li.dataset.id + "/toggle", { method: "POST" });
});

const sock = new WebSocket("ws://" + location.host + "/api/ws");
sock.addEventListener("message", (e) => {
  const frame = JSON.parse(e.data);
  if (frame.event === "list.changed") {
    refresh();
  } else if (frame.event === "previews.hydrated") {
    const urls = frame.payload.urls || {};
    for (const img of list.querySelectorAll("img.preview")) {
      const url = urls[img.dataset.attachmentId];
      if (url) img.src = url;
    }
  }
});

refresh();
</script>
</body>
</html>
`))
